package protocol

import "errors"

var (
	ErrHeaderTooShort    = errors.New("header too short")
	ErrTimecodeTruncated = errors.New("timecode truncated")
)
