package service

import "errors"

// Error definitions for the service package.
var (
	ErrNotAnImage   = errors.New("upload is not an image")
	ErrUndecodable  = errors.New("image could not be decoded")
	ErrOutputSize   = errors.New("network output does not match the class count")
	ErrNoClassifier = errors.New("classifier is not configured")
)
