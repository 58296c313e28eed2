package service

import "errors"

// Sentinel kinds for service errors.
var (
	ErrStartService = errors.New("start service failed")
)
