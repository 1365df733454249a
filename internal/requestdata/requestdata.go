package requestdata

import (
	"context"
)

var requestDataKey = struct{}{}

type RequestData struct {
	TokenString string
	UserID      string
	Role        string
}

func WithRequestData(ctx context.Context, rd *RequestData) context.Context {
	return context.WithValue(ctx, requestDataKey, rd)
}

func GetRequestData(ctx context.Context) *RequestData {
	val := ctx.Value(requestDataKey)
	if rd, ok := val.(*RequestData); ok {
		return rd
	}
	return nil
}

func (rd *RequestData) IsInstructor() bool {
	if rd == nil {
		return false
	}
	return rd.Role == "instructor" || rd.Role == "admin"
}
