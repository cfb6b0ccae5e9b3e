package pagination

import (
	"errors"
	"net/http"
	"net/url"
	"testing"
	"time"
)

func TestParseDefaults(t *testing.T) {
	params, err := Parse(url.Values{})
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if params.PageSize != DefaultPageSize {
		t.Fatalf("expected default page size %d got %d", DefaultPageSize, params.PageSize)
	}
	if params.PageToken != "" {
		t.Fatalf("expected empty page token got %q", params.PageToken)
	}
}

func TestParsePageSize(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		want int
	}{
		{name: "explicit", raw: "30", want: 30},
		{name: "clamped to max", raw: "400", want: MaxPageSize},
		{name: "zero falls back", raw: "0", want: DefaultPageSize},
		{name: "negative falls back", raw: "-5", want: DefaultPageSize},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			values := url.Values{}
			values.Set("page_size", tc.raw)
			params, err := Parse(values)
			if err != nil {
				t.Fatalf("Parse returned error: %v", err)
			}
			if params.PageSize != tc.want {
				t.Fatalf("expected page size %d got %d", tc.want, params.PageSize)
			}
		})
	}
}

func TestParseInvalidPageSize(t *testing.T) {
	values := url.Values{}
	values.Set("page_size", "abc")

	if _, err := Parse(values); !errors.Is(err, ErrInvalidPageSize) {
		t.Fatalf("expected ErrInvalidPageSize got %v", err)
	}
}

func TestParsePageToken(t *testing.T) {
	values := url.Values{}
	values.Set("page_token", "  cursor-token  ")

	params, err := Parse(values)
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if params.PageToken != "cursor-token" {
		t.Fatalf("expected trimmed page token got %q", params.PageToken)
	}
}

func TestFromRequest(t *testing.T) {
	req, err := http.NewRequest(http.MethodGet, "/?page_size=35&page_token=abc", nil)
	if err != nil {
		t.Fatalf("failed to create request: %v", err)
	}

	params, err := FromRequest(req)
	if err != nil {
		t.Fatalf("FromRequest returned error: %v", err)
	}
	if params.PageSize != 35 {
		t.Fatalf("expected page size 35 got %d", params.PageSize)
	}
	if params.PageToken != "abc" {
		t.Fatalf("expected page token %q got %q", "abc", params.PageToken)
	}
}

func TestEncodeDecodeListKey(t *testing.T) {
	key := ListKey{
		Timestamp: time.Date(2025, time.March, 12, 9, 30, 0, 123456789, time.UTC),
		DocID:     "ord_01HZX",
	}

	token := EncodeListKey(key)
	if token == "" {
		t.Fatal("expected non-empty token")
	}

	decoded, err := DecodeListKey(token)
	if err != nil {
		t.Fatalf("DecodeListKey returned error: %v", err)
	}
	if !decoded.Timestamp.Equal(key.Timestamp) {
		t.Fatalf("expected timestamp %v got %v", key.Timestamp, decoded.Timestamp)
	}
	if decoded.DocID != key.DocID {
		t.Fatalf("expected doc ID %q got %q", key.DocID, decoded.DocID)
	}
}

func TestDecodeListKeyInvalid(t *testing.T) {
	cases := []struct {
		name  string
		token string
	}{
		{name: "not base64", token: "!!!invalid!!!"},
		{name: "missing separator", token: "bm8tc2VwYXJhdG9y"},
		{name: "bad timestamp", token: "bm90LWEtdGltZXxkb2Mx"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := DecodeListKey(tc.token); !errors.Is(err, ErrInvalidPageToken) {
				t.Fatalf("expected ErrInvalidPageToken got %v", err)
			}
		})
	}
}
