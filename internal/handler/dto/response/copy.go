package response

import (
	"time"

	"staybook/internal/pkg/errs"

	"github.com/jinzhu/copier"
)

// Timestamps go out as unix seconds.
var copyOpt = copier.Option{
	Converters: []copier.TypeConverter{
		{
			SrcType: time.Time{},
			DstType: int64(0),
			Fn: func(src any) (any, error) {
				return src.(time.Time).Unix(), nil
			},
		},
		{
			SrcType: (*time.Time)(nil),
			DstType: (*int64)(nil),
			Fn: func(src any) (any, error) {
				t, _ := src.(*time.Time)
				if t == nil {
					return (*int64)(nil), nil
				}
				u := t.Unix()
				return &u, nil
			},
		},
	},
}

func copyInto(dst, src any) error {
	if err := copier.CopyWithOption(dst, src, copyOpt); err != nil {
		return errs.Wrap(err, "copy response")
	}
	return nil
}
