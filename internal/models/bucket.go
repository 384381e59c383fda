package models

import "fmt"

type Bucket int

const (
	BucketUnhandled Bucket = iota
	BucketInProgress
	BucketClosed
)

var AllBuckets = []Bucket{BucketUnhandled, BucketInProgress, BucketClosed}

// String совпадает со значениями фильтра на странице истории.
func (b Bucket) String() string {
	switch b {
	case BucketUnhandled:
		return "pending"
	case BucketInProgress:
		return "processed"
	case BucketClosed:
		return "resolved"
	}
	return fmt.Sprintf("bucket(%d)", int(b))
}

// Statuses: обратное отображение, нужно для фильтров в SQL.
func (b Bucket) Statuses() []Status {
	out := make([]Status, 0, 2)
	for _, s := range AllStatuses {
		if s.Bucket() == b {
			out = append(out, s)
		}
	}
	return out
}

// ParseBucketFilter: "" и "all" означают отсутствие фильтра (nil).
func ParseBucketFilter(s string) (*Bucket, error) {
	switch s {
	case "", "all":
		return nil, nil
	}
	for _, b := range AllBuckets {
		if b.String() == s {
			return &b, nil
		}
	}
	return nil, &ValidationError{Field: "bucket", Msg: fmt.Sprintf("filter %q tidak dikenal", s)}
}
