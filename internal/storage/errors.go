package storage

import "errors"

var (
	ErrNotFound          = errors.New("not found")
	ErrAlreadyRecorded   = errors.New("task status already recorded")
	ErrNotInitialized    = errors.New("storage not initialized, run 'totalrecover init' first")
	ErrSurgeryDateLocked = errors.New("surgery date cannot change after a protocol is assigned")
)
