package repository

import "errors"

var (
	// ErrSlotTaken - слот уже занят другой бронью.
	ErrSlotTaken = errors.New("slot already taken")
	// ErrDuplicate - запись с таким уникальным ключом уже есть.
	ErrDuplicate = errors.New("duplicate record")
)
