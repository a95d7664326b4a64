package couch

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FlavioFalcao/object-recognition-core/pkg/httpengine/enginetest"
	"github.com/FlavioFalcao/object-recognition-core/pkg/metrics"
	"github.com/FlavioFalcao/object-recognition-core/pkg/objectdb"
)

const testBase = "http://couch.test:5984"

func newTestAdapter(t *testing.T, stub *enginetest.Stub) *Adapter {
	t.Helper()
	a, err := NewAdapter(&Config{URL: testBase}, nil, WithEngine(stub))
	require.NoError(t, err)
	return a
}

func TestNewAdapter(t *testing.T) {
	t.Run("nil config", func(t *testing.T) {
		_, err := NewAdapter(nil, nil)
		assert.Error(t, err)
	})

	t.Run("invalid config", func(t *testing.T) {
		_, err := NewAdapter(&Config{URL: "not a url"}, nil, WithEngine(enginetest.New()))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid CouchDB configuration")
	})

	t.Run("trailing slash trimmed", func(t *testing.T) {
		a, err := NewAdapter(&Config{URL: testBase + "/"}, nil, WithEngine(enginetest.New()))
		require.NoError(t, err)
		assert.Equal(t, testBase, a.URL())
		assert.Equal(t, "couchdb", a.Name())
	})
}

func TestInsertDocument(t *testing.T) {
	ctx := context.Background()

	t.Run("returns id and rev", func(t *testing.T) {
		stub := enginetest.JSON(http.StatusCreated, `{"ok":true,"id":"abc123","rev":"1-xyz"}`)
		a := newTestAdapter(t, stub)

		id, rev, err := a.InsertDocument(ctx, "objects", objectdb.Fields{"name": "cup"})
		require.NoError(t, err)
		assert.Equal(t, "abc123", id)
		assert.Equal(t, "1-xyz", rev)

		require.Equal(t, 1, stub.CallCount())
		call := stub.LastCall()
		assert.Equal(t, http.MethodPost, call.Method)
		assert.Equal(t, testBase+"/objects", call.URL)
		assert.Equal(t, "application/json", call.Header.Get("Content-Type"))
		assert.JSONEq(t, `{"name":"cup"}`, string(call.Body))
	})

	tests := []struct {
		name       string
		body       string
		wantFields []string
		wantErr    error
	}{
		{
			name:       "missing id",
			body:       `{"ok":true,"rev":"1-xyz"}`,
			wantFields: []string{"id"},
			wantErr:    objectdb.ErrProtocol,
		},
		{
			name:       "missing rev",
			body:       `{"ok":true,"id":"abc123"}`,
			wantFields: []string{"rev"},
			wantErr:    objectdb.ErrProtocol,
		},
		{
			name:       "missing id and rev",
			body:       `{"ok":true}`,
			wantFields: []string{"id", "rev"},
			wantErr:    objectdb.ErrProtocol,
		},
		{
			name:    "empty rev",
			body:    `{"id":"abc123","rev":""}`,
			wantErr: objectdb.ErrProtocol,
		},
		{
			name:    "numeric id",
			body:    `{"id":42,"rev":"1-xyz"}`,
			wantErr: objectdb.ErrProtocol,
		},
		{
			name:    "not json",
			body:    `<html>`,
			wantErr: objectdb.ErrProtocol,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := newTestAdapter(t, enginetest.JSON(http.StatusCreated, tt.body))

			id, rev, err := a.InsertDocument(ctx, "objects", objectdb.Fields{"name": "cup"})
			require.Error(t, err)
			assert.Empty(t, id)
			assert.Empty(t, rev)
			assert.True(t, errors.Is(err, tt.wantErr))
			assert.Equal(t, tt.wantFields, objectdb.MissingFields(err))
		})
	}

	t.Run("empty rev is invalid, not missing", func(t *testing.T) {
		a := newTestAdapter(t, enginetest.JSON(http.StatusCreated, `{"id":"abc123","rev":""}`))

		_, _, err := a.InsertDocument(ctx, "objects", objectdb.Fields{})
		var invalidErr *objectdb.InvalidFieldError
		require.True(t, errors.As(err, &invalidErr))
		assert.Equal(t, "rev", invalidErr.Field)
	})

	t.Run("empty collection makes no call", func(t *testing.T) {
		stub := enginetest.New()
		a := newTestAdapter(t, stub)

		_, _, err := a.InsertDocument(ctx, "", objectdb.Fields{})
		assert.True(t, errors.Is(err, objectdb.ErrInvalidArgument))
		assert.Equal(t, 0, stub.CallCount())
	})
}

func TestUpdateDocument(t *testing.T) {
	ctx := context.Background()

	t.Run("returns new rev", func(t *testing.T) {
		stub := enginetest.JSON(http.StatusCreated, `{"ok":true,"id":"abc123","rev":"2-def"}`)
		a := newTestAdapter(t, stub)

		rev, err := a.UpdateDocument(ctx, "abc123", "objects", objectdb.Fields{"name": "mug", "_rev": "1-xyz"})
		require.NoError(t, err)
		assert.Equal(t, "2-def", rev)

		call := stub.LastCall()
		assert.Equal(t, http.MethodPut, call.Method)
		assert.Equal(t, testBase+"/objects/abc123", call.URL)
		assert.JSONEq(t, `{"name":"mug","_rev":"1-xyz"}`, string(call.Body))
	})

	t.Run("rev only response", func(t *testing.T) {
		a := newTestAdapter(t, enginetest.JSON(http.StatusCreated, `{"rev":"2-def"}`))

		rev, err := a.UpdateDocument(ctx, "abc123", "objects", objectdb.Fields{"name": "mug"})
		require.NoError(t, err)
		assert.Equal(t, "2-def", rev)
	})

	t.Run("missing rev", func(t *testing.T) {
		a := newTestAdapter(t, enginetest.JSON(http.StatusCreated, `{"ok":true,"id":"abc123"}`))

		rev, err := a.UpdateDocument(ctx, "abc123", "objects", objectdb.Fields{})
		assert.Empty(t, rev)
		assert.Equal(t, []string{"rev"}, objectdb.MissingFields(err))
	})

	t.Run("conflict", func(t *testing.T) {
		a := newTestAdapter(t, enginetest.JSON(http.StatusConflict, `{"error":"conflict","reason":"Document update conflict."}`))

		_, err := a.UpdateDocument(ctx, "abc123", "objects", objectdb.Fields{"_rev": "1-old"})
		assert.True(t, errors.Is(err, objectdb.ErrConflict))
		assert.True(t, errors.Is(err, objectdb.ErrTransport))

		var statusErr *objectdb.StatusError
		require.True(t, errors.As(err, &statusErr))
		assert.Equal(t, "conflict", statusErr.Type)
		assert.Equal(t, "Document update conflict.", statusErr.Reason)
	})

	tests := []struct {
		name       string
		id         string
		collection string
	}{
		{name: "empty id", id: "", collection: "objects"},
		{name: "empty collection", id: "abc123", collection: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stub := enginetest.New()
			a := newTestAdapter(t, stub)

			_, err := a.UpdateDocument(ctx, tt.id, tt.collection, objectdb.Fields{})
			assert.True(t, errors.Is(err, objectdb.ErrInvalidArgument))
			assert.Equal(t, 0, stub.CallCount())
		})
	}
}

func TestFetchDocument(t *testing.T) {
	ctx := context.Background()

	t.Run("decodes body", func(t *testing.T) {
		stub := enginetest.JSON(http.StatusOK, `{"_id":"abc123","_rev":"2-def","name":"mug","size":{"h":10}}`)
		a := newTestAdapter(t, stub)

		var dst objectdb.Fields
		require.NoError(t, a.FetchDocument(ctx, "abc123", "objects", &dst))
		assert.Equal(t, "mug", dst.String("name", ""))
		assert.Equal(t, "2-def", dst.String("_rev", ""))
		assert.Equal(t, 10, dst.Int("size.h", 0))

		call := stub.LastCall()
		assert.Equal(t, http.MethodGet, call.Method)
		assert.Equal(t, testBase+"/objects/abc123", call.URL)
		assert.Nil(t, call.Body)
	})

	tests := []struct {
		name    string
		reply   enginetest.Reply
		wantErr error
	}{
		{
			name:    "not found",
			reply:   enginetest.Reply{StatusCode: http.StatusNotFound, Body: `{"error":"not_found","reason":"missing"}`},
			wantErr: objectdb.ErrNotFound,
		},
		{
			name:    "server error",
			reply:   enginetest.Reply{StatusCode: http.StatusInternalServerError, Body: `oops`},
			wantErr: objectdb.ErrTransport,
		},
		{
			name:    "engine failure",
			reply:   enginetest.Reply{Err: errors.New("connection reset")},
			wantErr: objectdb.ErrTransport,
		},
		{
			name:    "malformed body",
			reply:   enginetest.Reply{StatusCode: http.StatusOK, Body: `{"name":`},
			wantErr: objectdb.ErrProtocol,
		},
		{
			name:    "array body",
			reply:   enginetest.Reply{StatusCode: http.StatusOK, Body: `[1,2]`},
			wantErr: objectdb.ErrProtocol,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := newTestAdapter(t, enginetest.New(tt.reply))

			dst := objectdb.Fields{"sentinel": "untouched"}
			err := a.FetchDocument(ctx, "abc123", "objects", &dst)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.wantErr))
			assert.Equal(t, objectdb.Fields{"sentinel": "untouched"}, dst)
		})
	}

	t.Run("nil destination", func(t *testing.T) {
		stub := enginetest.New()
		a := newTestAdapter(t, stub)

		err := a.FetchDocument(ctx, "abc123", "objects", nil)
		assert.True(t, errors.Is(err, objectdb.ErrInvalidArgument))
		assert.Equal(t, 0, stub.CallCount())
	})
}

func TestWriteAttachment(t *testing.T) {
	ctx := context.Background()

	t.Run("streams body at rev", func(t *testing.T) {
		stub := enginetest.JSON(http.StatusCreated, `{"ok":true,"id":"abc123","rev":"3-ghi"}`)
		a := newTestAdapter(t, stub)

		rev, err := a.WriteAttachment(ctx, "abc123", "objects", "photo.png", "image/png", strings.NewReader("\x89PNG"), "2-def")
		require.NoError(t, err)
		assert.Equal(t, "3-ghi", rev)

		call := stub.LastCall()
		assert.Equal(t, http.MethodPut, call.Method)
		assert.Equal(t, testBase+"/objects/abc123/photo.png?rev=2-def", call.URL)
		assert.Equal(t, "image/png", call.Header.Get("Content-Type"))
		assert.Equal(t, []byte("\x89PNG"), call.Body)
	})

	t.Run("missing rev in response", func(t *testing.T) {
		a := newTestAdapter(t, enginetest.JSON(http.StatusCreated, `{"ok":true}`))

		_, err := a.WriteAttachment(ctx, "abc123", "objects", "photo.png", "image/png", strings.NewReader("x"), "2-def")
		assert.Equal(t, []string{"rev"}, objectdb.MissingFields(err))
	})

	t.Run("stale rev", func(t *testing.T) {
		a := newTestAdapter(t, enginetest.JSON(http.StatusConflict, `{"error":"conflict","reason":"Document update conflict."}`))

		_, err := a.WriteAttachment(ctx, "abc123", "objects", "photo.png", "image/png", strings.NewReader("x"), "1-old")
		assert.True(t, errors.Is(err, objectdb.ErrConflict))
		assert.True(t, errors.Is(err, objectdb.ErrTransport))
	})

	tests := []struct {
		name       string
		id         string
		collection string
		attachment string
		rev        string
	}{
		{name: "empty id", collection: "objects", attachment: "photo.png", rev: "2-def"},
		{name: "empty rev", id: "abc123", collection: "objects", attachment: "photo.png"},
		{name: "empty collection", id: "abc123", attachment: "photo.png", rev: "2-def"},
		{name: "empty attachment name", id: "abc123", collection: "objects", rev: "2-def"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stub := enginetest.New()
			a := newTestAdapter(t, stub)

			_, err := a.WriteAttachment(ctx, tt.id, tt.collection, tt.attachment, "image/png", strings.NewReader("x"), tt.rev)
			assert.True(t, errors.Is(err, objectdb.ErrInvalidArgument))
			assert.Equal(t, 0, stub.CallCount())
		})
	}
}

func TestReadAttachment(t *testing.T) {
	ctx := context.Background()

	t.Run("writes body", func(t *testing.T) {
		stub := enginetest.New(enginetest.Reply{StatusCode: http.StatusOK, Body: "\x89PNG"})
		a := newTestAdapter(t, stub)

		var out bytes.Buffer
		require.NoError(t, a.ReadAttachment(ctx, "abc123", "objects", "photo.png", "image/png", &out))
		assert.Equal(t, "\x89PNG", out.String())

		call := stub.LastCall()
		assert.Equal(t, http.MethodGet, call.Method)
		assert.Equal(t, testBase+"/objects/abc123/photo.png", call.URL)
		assert.Equal(t, "image/png", call.Header.Get("Accept"))
	})

	t.Run("not found writes nothing", func(t *testing.T) {
		a := newTestAdapter(t, enginetest.JSON(http.StatusNotFound, `{"error":"not_found","reason":"Document is missing attachment"}`))

		var out bytes.Buffer
		err := a.ReadAttachment(ctx, "abc123", "objects", "photo.png", "", &out)
		assert.True(t, errors.Is(err, objectdb.ErrNotFound))
		assert.Zero(t, out.Len())
	})

	t.Run("empty name makes no call", func(t *testing.T) {
		stub := enginetest.New()
		a := newTestAdapter(t, stub)

		err := a.ReadAttachment(ctx, "abc123", "objects", "", "", &bytes.Buffer{})
		assert.True(t, errors.Is(err, objectdb.ErrInvalidArgument))
		assert.Equal(t, 0, stub.CallCount())
	})
}

func TestQuery(t *testing.T) {
	stub := enginetest.New()
	a := newTestAdapter(t, stub)

	result, err := a.Query(context.Background(), []string{"function(doc){emit(doc._id)}"}, "objects", 10, 0)
	assert.True(t, errors.Is(err, objectdb.ErrNotImplemented))
	assert.Equal(t, objectdb.QueryResult{}, result)
	assert.Equal(t, 0, stub.CallCount())
}

func TestEnsureCollection(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		reply   enginetest.Reply
		wantErr error
	}{
		{
			name:  "created",
			reply: enginetest.Reply{StatusCode: http.StatusCreated, Body: `{"ok":true}`},
		},
		{
			name:  "already exists",
			reply: enginetest.Reply{StatusCode: http.StatusPreconditionFailed, Body: `{"error":"file_exists"}`},
		},
		{
			name:    "unauthorized",
			reply:   enginetest.Reply{StatusCode: http.StatusUnauthorized, Body: `{"error":"unauthorized","reason":"You are not a server admin."}`},
			wantErr: objectdb.ErrTransport,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stub := enginetest.New(tt.reply)
			a := newTestAdapter(t, stub)

			err := a.EnsureCollection(ctx, "objects")
			if tt.wantErr != nil {
				assert.True(t, errors.Is(err, tt.wantErr))
			} else {
				assert.NoError(t, err)
			}

			call := stub.LastCall()
			assert.Equal(t, http.MethodPut, call.Method)
			assert.Equal(t, testBase+"/objects", call.URL)
		})
	}
}

func TestPing(t *testing.T) {
	stub := enginetest.JSON(http.StatusOK, `{"couchdb":"Welcome","version":"3.3.3","uuid":"u1","vendor":{"name":"The Apache Software Foundation"}}`)
	a := newTestAdapter(t, stub)

	info, err := a.Ping(context.Background())
	require.NoError(t, err)
	assert.Equal(t, ServerInfo{
		CouchDB: "Welcome",
		Version: "3.3.3",
		UUID:    "u1",
		Vendor:  "The Apache Software Foundation",
	}, info)
	assert.Equal(t, testBase+"/", stub.LastCall().URL)
}

func TestRequestMetrics(t *testing.T) {
	okCounter := metrics.CouchRequests.WithLabelValues("InsertDocument", "201")
	errCounter := metrics.CouchRequests.WithLabelValues("InsertDocument", "error")
	okBefore := testutil.ToFloat64(okCounter)
	errBefore := testutil.ToFloat64(errCounter)

	a := newTestAdapter(t, enginetest.New(
		enginetest.Reply{StatusCode: http.StatusCreated, Body: `{"id":"a","rev":"1-a"}`},
		enginetest.Reply{Err: errors.New("connection refused")},
	))
	_, _, err := a.InsertDocument(context.Background(), "objects", objectdb.Fields{})
	require.NoError(t, err)
	_, _, err = a.InsertDocument(context.Background(), "objects", objectdb.Fields{})
	require.Error(t, err)

	assert.Equal(t, okBefore+1, testutil.ToFloat64(okCounter))
	assert.Equal(t, errBefore+1, testutil.ToFloat64(errCounter))
}
