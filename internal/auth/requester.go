// Package auth 请求者身份：匿名、普通用户或管理员（staff）。
package auth

import "context"

// Requester 当前请求者，UserID 为空表示匿名
type Requester struct {
	UserID  string
	IsStaff bool
}

// Anonymous 匿名请求者
var Anonymous = Requester{}

func User(id string) Requester {
	return Requester{UserID: id}
}

func Staff(id string) Requester {
	return Requester{UserID: id, IsStaff: true}
}

func (r Requester) IsAnonymous() bool {
	return r.UserID == ""
}

// OwnerID 匿名请求者返回 nil
func (r Requester) OwnerID() *string {
	if r.IsAnonymous() {
		return nil
	}
	id := r.UserID
	return &id
}

type requesterKey struct{}

func WithRequester(ctx context.Context, r Requester) context.Context {
	return context.WithValue(ctx, requesterKey{}, r)
}

// FromContext 未设置时视为匿名
func FromContext(ctx context.Context) Requester {
	r, ok := ctx.Value(requesterKey{}).(Requester)
	if !ok {
		return Anonymous
	}
	return r
}
