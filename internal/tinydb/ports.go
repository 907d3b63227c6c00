package tinydb

import (
	"context"
)

// Pager hands out resident pages and persists them.
type Pager interface {
	GetPage(context.Context, PageIndex) (*Page, error)
	TotalPages() uint32
	MaxPages() uint32
	Flush(context.Context, PageIndex) error
	Close(context.Context) error
}
