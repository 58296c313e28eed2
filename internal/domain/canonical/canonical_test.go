package canonical_test

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/okian/intake/internal/domain/canonical"
	. "github.com/smartystreets/goconvey/convey"
)

func TestNewRecord(t *testing.T) {
	Convey("Given record construction inputs", t, func() {
		date := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)
		metadata := map[string]string{
			"sourceProvider": "provider_a",
			"sourceFormat":   "nested_json",
		}

		Convey("When creating a record", func() {
			rec := canonical.NewRecord("P1", "behavioral", date, metadata)

			Convey("Then it should carry the pair, the RFC3339 date, and no scores", func() {
				So(rec.PatientID, ShouldEqual, "P1")
				So(rec.AssessmentType, ShouldEqual, "behavioral")
				So(rec.AssessmentDate, ShouldEqual, "2026-03-14T09:30:00Z")
				So(rec.Scores, ShouldBeEmpty)
				So(rec.Metadata, ShouldResemble, metadata)
			})

			Convey("And the metadata map should be a copy", func() {
				metadata["sourceProvider"] = "mutated"
				So(rec.Metadata["sourceProvider"], ShouldEqual, "provider_a")
			})
		})

		Convey("When marshaling a record", func() {
			rec := canonical.NewRecord("P1", "behavioral", date, metadata)
			rec.Scores = append(rec.Scores, canonical.Score{
				Dimension: "anxiety",
				Value:     70,
				Scale:     canonical.Scale100,
			})

			out, err := json.Marshal(rec)

			Convey("Then the output contract field order should hold", func() {
				So(err, ShouldBeNil)
				s := string(out)
				So(s, ShouldContainSubstring, `"patientId":"P1"`)
				So(s, ShouldContainSubstring, `"scores":[{"dimension":"anxiety","value":70,"scale":"0-100"}]`)
				So(strings.Index(s, "patientId"), ShouldBeLessThan, strings.Index(s, "assessmentDate"))
				So(strings.Index(s, "assessmentDate"), ShouldBeLessThan, strings.Index(s, "assessmentType"))
				So(strings.Index(s, "assessmentType"), ShouldBeLessThan, strings.Index(s, "scores"))
				So(strings.Index(s, "scores"), ShouldBeLessThan, strings.Index(s, "metadata"))
			})
		})
	})
}

func TestErrorTaxonomy(t *testing.T) {
	Convey("Given the normalization error variants", t, func() {
		Convey("When checking the no-error states", func() {
			var none *canonical.Error
			empty := canonical.NewAggregateError()

			Convey("Then nil and an empty aggregate should both report no error", func() {
				So(none.IsError(), ShouldBeFalse)
				So(empty.IsError(), ShouldBeFalse)
			})

			Convey("And they should remain structurally distinct", func() {
				So(none.Equal(empty), ShouldBeFalse)
				So(empty.Equal(empty), ShouldBeTrue)
			})
		})

		Convey("When comparing errors structurally", func() {
			a := canonical.NewAggregateError(
				canonical.NewValidateError("row has no data", 0),
				canonical.NewValidateError("row has no data", 2),
			)
			b := canonical.NewAggregateError(
				canonical.NewValidateError("row has no data", 0),
				canonical.NewValidateError("row has no data", 2),
			)
			c := canonical.NewAggregateError(
				canonical.NewValidateError("row has no data", 1),
			)

			Convey("Then equal structures should compare equal", func() {
				So(a.Equal(b), ShouldBeTrue)
				So(a.Equal(c), ShouldBeFalse)
				So(a.IsError(), ShouldBeTrue)
			})
		})

		Convey("When formatting errors", func() {
			Convey("Then each variant should name itself", func() {
				So(canonical.NewParseError("bad json").Error(), ShouldEqual, "parse: bad json")
				So(canonical.NewValidateError("invalid category", 3).Error(), ShouldEqual, "validate row 3: invalid category")
				So(canonical.NewUnknownError("no provider with name: z").Error(), ShouldEqual, "unknown: no provider with name: z")
				So(canonical.NewAggregateError(canonical.NewValidateError("x", 0)).Error(), ShouldContainSubstring, "1 row(s)")
			})
		})

		Convey("When used through the error interface", func() {
			var err error = canonical.NewParseError("broken")

			Convey("Then it should behave like a normal error", func() {
				So(err.Error(), ShouldEqual, "parse: broken")
			})
		})
	})
}
