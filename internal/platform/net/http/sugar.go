package http

import (
	"net/http"

	"facegate/internal/platform/net/http/bind"
)

// GetJSON mounts a pure JSON handler for GET
func GetJSON(r Router, path string, h func(*http.Request) (any, error)) {
	r.Get(path, command(h))
}

// PostJSON mounts a pure JSON handler for POST
func PostJSON[T any](r Router, path string, h func(*http.Request, T) (any, error)) {
	r.Post(path, withBody(h))
}

// PostJSONNoBody mounts a POST command that takes no payload (e.g. "capture now")
func PostJSONNoBody(r Router, path string, h func(*http.Request) (any, error)) {
	r.Post(path, command(h))
}

// PutJSON mounts a pure JSON handler for PUT
func PutJSON[T any](r Router, path string, h func(*http.Request, T) (any, error)) {
	r.Put(path, withBody(h))
}

// withBody binds and validates a T before calling h. Bind failures never reach h
func withBody[T any](h func(*http.Request, T) (any, error)) Handler {
	return Handle(func(r *http.Request) Response {
		in, err := bind.ParseJSON[T](r)
		if err != nil {
			return Error(err)
		}
		return result(h(r, in))
	})
}

func command(h func(*http.Request) (any, error)) Handler {
	return Handle(func(r *http.Request) Response { return result(h(r)) })
}

func result(out any, err error) Response {
	if err != nil {
		return Error(err)
	}
	return OK(out)
}
