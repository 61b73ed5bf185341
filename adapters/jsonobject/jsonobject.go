// Package jsonobject loads JSON documents through a batchload engine.
package jsonobject

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/unkn0wn-root/batchload"
	"github.com/unkn0wn-root/batchload/codec"
	"github.com/unkn0wn-root/batchload/internal/keyutil"
	"github.com/unkn0wn-root/batchload/provider/lru"
	"github.com/unkn0wn-root/batchload/transport/httpfetch"
)

// Object is a decoded JSON object. Cached objects are shared between
// callers and must be treated as read-only.
type Object = map[string]any

type Request struct {
	URL    string
	Method string // "" => GET
	Body   []byte // sent as application/json when non-nil
}

func (r Request) method() string {
	if r.Method == "" {
		return http.MethodGet
	}
	return r.Method
}

// Key is "#M<method>#D<body sha256><url>", so requests that differ only in
// their body are fetched separately.
func Key(r Request) string {
	return "#M" + r.method() + "#D" + keyutil.Sum(r.Body) + r.URL
}

// Sizer weighs objects by their encoded length under c.
func Sizer(c codec.Codec[Object]) func(string, Object) int64 {
	return func(_ string, o Object) int64 {
		b, err := c.Encode(o)
		if err != nil {
			return 1
		}
		return int64(len(b))
	}
}

var jsonHeader = http.Header{
	"Accept":       {"application/json"},
	"Content-Type": {"application/json"},
}

// Fetcher performs the request with c and decodes the body with dec.
func Fetcher(c *httpfetch.Client, dec codec.Codec[Object]) batchload.FetchFunc[Request, Object] {
	return func(r Request, onSuccess func(Object), onError func(error)) batchload.Fetch {
		return batchload.NewFetch(func(ctx context.Context) (Object, error) {
			data, err := c.Do(ctx, httpfetch.Request{
				Method: r.method(),
				URL:    r.URL,
				Header: jsonHeader,
				Body:   r.Body,
			})
			if err != nil {
				return nil, err
			}
			obj, err := dec.Decode(data)
			if err != nil {
				return nil, fmt.Errorf("jsonobject: decode %s: %w", r.URL, err)
			}
			if obj == nil {
				// "null" decodes to a nil map
				obj = Object{}
			}
			return obj, nil
		}, onSuccess, onError)
	}
}

type Config struct {
	Name       string // "" => "json"
	Executor   batchload.Executor
	Queue      batchload.Queue
	HTTP       *httpfetch.Client
	Codec      codec.Codec[Object] // nil => codec.JSON
	MaxDecode  int                 // refuse bodies larger than this; 0 => no limit
	Capacity   int64               // bytes of encoded objects; 0 => provider.DefaultCapacity()
	BatchDelay time.Duration
	Logger     batchload.Logger
	Hooks      batchload.Hooks
}

func New(cfg Config) (batchload.Loader[Request, Object], error) {
	if cfg.HTTP == nil {
		return nil, errors.New("jsonobject: http client is required")
	}
	var c codec.Codec[Object] = codec.JSON[Object]{}
	if cfg.Codec != nil {
		c = cfg.Codec
	}
	dec := codec.Limit[Object]{Inner: c, MaxDecode: cfg.MaxDecode}

	cache, err := lru.New(lru.Config[Object]{Capacity: cfg.Capacity, Size: Sizer(c)})
	if err != nil {
		return nil, err
	}
	name := cfg.Name
	if name == "" {
		name = "json"
	}
	return batchload.New(batchload.Options[Request, Object]{
		Name:       name,
		Executor:   cfg.Executor,
		Queue:      cfg.Queue,
		Cache:      cache,
		Key:        Key,
		Fetch:      Fetcher(cfg.HTTP, dec),
		BatchDelay: cfg.BatchDelay,
		Logger:     cfg.Logger,
		Hooks:      cfg.Hooks,
	})
}
