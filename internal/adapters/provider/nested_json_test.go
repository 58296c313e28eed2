package provider_test

import (
	"context"
	"testing"

	"github.com/okian/intake/internal/adapters/provider"
	"github.com/okian/intake/internal/domain/canonical"
	. "github.com/smartystreets/goconvey/convey"
)

func TestNestedJSON_Parse(t *testing.T) {
	Convey("Given a nested-JSON adapter", t, func() {
		ctx := context.Background()
		p := provider.NewNestedJSON()

		Convey("When parsing a well-formed batch", func() {
			raw := `[{
				"patient": {"id": "P123a", "name": "test", "dob": "20260221"},
				"assessment": {
					"type": "behavioral_screening",
					"scores": {"anxiety": 7, "social": 4, "attention": 6},
					"notes": "This is a note"
				}
			}]`

			Convey("Then parse should succeed and validation should pass", func() {
				So(p.Parse(ctx, raw), ShouldBeNil)
				So(p.Validate(ctx).IsError(), ShouldBeFalse)

				records := p.Convert(ctx)
				So(records, ShouldHaveLength, 1)
				So(records[0].PatientID, ShouldEqual, "P123a")
				So(records[0].AssessmentType, ShouldEqual, "behavioral_screening")
				So(records[0].Scores, ShouldHaveLength, 3)
			})
		})

		Convey("When parsing malformed JSON", func() {
			err := p.Parse(ctx, `[{"patient": {`)

			Convey("Then it should fail with a parse error", func() {
				So(err, ShouldNotBeNil)
				So(err.Kind, ShouldEqual, canonical.KindParse)
			})
		})

		Convey("When parsing a batch with a non-integer score", func() {
			err := p.Parse(ctx, `[{
				"patient": {"id": "P1", "name": "n", "dob": "20260101"},
				"assessment": {"type": "t", "scores": {"anxiety": "high"}, "notes": ""}
			}]`)

			Convey("Then it should fail with a parse error", func() {
				So(err, ShouldNotBeNil)
				So(err.Kind, ShouldEqual, canonical.KindParse)
			})
		})

		Convey("When parsing an unparseable date of birth", func() {
			raw := `[{
				"patient": {"id": "P1", "name": "n", "dob": "not-a-date"},
				"assessment": {"type": "t", "scores": {"anxiety": 5}, "notes": ""}
			}]`

			Convey("Then the row should still parse and validate", func() {
				So(p.Parse(ctx, raw), ShouldBeNil)
				So(p.Validate(ctx).IsError(), ShouldBeFalse)
			})
		})
	})
}

func TestNestedJSON_Validate(t *testing.T) {
	Convey("Given a parsed nested-JSON batch", t, func() {
		ctx := context.Background()
		p := provider.NewNestedJSON()

		Convey("When one row is entirely empty", func() {
			raw := `[
				{"patient": {"id": "P1", "name": "n", "dob": "20260101"},
				 "assessment": {"type": "behavioral", "scores": {"anxiety": 7}, "notes": "x"}},
				{"patient": {"id": "", "name": "", "dob": ""},
				 "assessment": {"type": "", "scores": {}, "notes": ""}}
			]`
			So(p.Parse(ctx, raw), ShouldBeNil)
			verr := p.Validate(ctx)

			Convey("Then only that row should be flagged", func() {
				So(verr.IsError(), ShouldBeTrue)
				So(verr.Kind, ShouldEqual, canonical.KindAggregate)
				So(verr.Errs, ShouldHaveLength, 1)
				So(verr.Errs[0].Row, ShouldEqual, 1)
			})

			Convey("And convert should skip the flagged row", func() {
				records := p.Convert(ctx)
				So(records, ShouldHaveLength, 1)
				So(records[0].PatientID, ShouldEqual, "P1")
			})
		})

		Convey("When a row is almost empty but has one populated field", func() {
			raw := `[{"patient": {"id": "", "name": "only a name", "dob": ""},
				"assessment": {"type": "", "scores": {}, "notes": ""}}]`
			So(p.Parse(ctx, raw), ShouldBeNil)

			Convey("Then it should validate successfully", func() {
				So(p.Validate(ctx).IsError(), ShouldBeFalse)
			})
		})

		Convey("When re-validating after a previous pass", func() {
			raw := `[{"patient": {"id": "", "name": "", "dob": ""},
				"assessment": {"type": "", "scores": {}, "notes": ""}}]`
			So(p.Parse(ctx, raw), ShouldBeNil)
			first := p.Validate(ctx)
			second := p.Validate(ctx)

			Convey("Then repeated passes should not accumulate", func() {
				So(first.Equal(second), ShouldBeTrue)
				So(second.Errs, ShouldHaveLength, 1)
			})
		})
	})
}

func TestNestedJSON_Convert(t *testing.T) {
	Convey("Given a parsed and validated nested-JSON batch", t, func() {
		ctx := context.Background()
		p := provider.NewNestedJSON()

		Convey("When converting the end-to-end example", func() {
			raw := `[{"patient":{"id":"P1","name":"n","dob":"20260101"},` +
				`"assessment":{"type":"behavioral","scores":{"anxiety":7},"notes":"x"}}]`
			So(p.Parse(ctx, raw), ShouldBeNil)
			So(p.Validate(ctx).IsError(), ShouldBeFalse)
			records := p.Convert(ctx)

			Convey("Then scores should be scaled from 0-10 onto 0-100", func() {
				So(records, ShouldHaveLength, 1)
				So(records[0].PatientID, ShouldEqual, "P1")
				So(records[0].AssessmentType, ShouldEqual, "behavioral")
				So(records[0].Scores, ShouldResemble, []canonical.Score{
					{Dimension: "anxiety", Value: 70, Scale: "0-100"},
				})
			})
		})

		Convey("When multiple rows share a (patient, type) pair", func() {
			raw := `[
				{"patient": {"id": "P2", "name": "n", "dob": "20260101"},
				 "assessment": {"type": "behavioral", "scores": {"social": 4}, "notes": ""}},
				{"patient": {"id": "P1", "name": "n", "dob": "20260101"},
				 "assessment": {"type": "cognitive", "scores": {"memory": 8}, "notes": ""}},
				{"patient": {"id": "P2", "name": "n", "dob": "20260101"},
				 "assessment": {"type": "behavioral", "scores": {"attention": 6}, "notes": ""}}
			]`
			So(p.Parse(ctx, raw), ShouldBeNil)
			So(p.Validate(ctx).IsError(), ShouldBeFalse)
			records := p.Convert(ctx)

			Convey("Then groups should merge and output order should be lexicographic", func() {
				So(records, ShouldHaveLength, 2)
				So(records[0].PatientID, ShouldEqual, "P1")
				So(records[0].AssessmentType, ShouldEqual, "cognitive")
				So(records[1].PatientID, ShouldEqual, "P2")
				So(records[1].AssessmentType, ShouldEqual, "behavioral")
				So(records[1].Scores, ShouldHaveLength, 2)
			})
		})

		Convey("When inspecting the metadata block", func() {
			meta := p.Metadata()

			Convey("Then it should carry the provenance contract", func() {
				So(meta["sourceProvider"], ShouldEqual, "provider_a")
				So(meta["sourceFormat"], ShouldEqual, "nested_json")
				So(meta["version"], ShouldEqual, "1.0")
				So(meta["ingestedAt"], ShouldNotBeEmpty)
			})
		})
	})
}
