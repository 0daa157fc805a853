package pagination

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name          string
		limit, offset string
		wantLimit     int
		wantOffset    int
	}{
		{"defaults", "", "", DefaultLimit, 0},
		{"explicit", "5", "10", 5, 10},
		{"capped", "1000", "0", MaxLimit, 0},
		{"negative offset", "5", "-3", 5, 0},
		{"garbage", "abc", "xyz", DefaultLimit, 0},
		{"zero limit", "0", "2", DefaultLimit, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := New(tt.limit, tt.offset)
			if p.Limit != tt.wantLimit || p.Offset != tt.wantOffset {
				t.Errorf("New(%q, %q) = %+v, want limit %d offset %d", tt.limit, tt.offset, p, tt.wantLimit, tt.wantOffset)
			}
		})
	}
}

func TestFromContext(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/patients?limit=3&offset=6", nil)
	c := e.NewContext(req, httptest.NewRecorder())

	p := FromContext(c)
	if p.Limit != 3 || p.Offset != 6 {
		t.Errorf("unexpected params %+v", p)
	}
}

func TestNewResponse(t *testing.T) {
	resp := NewResponse([]int{1, 2}, 10, Params{Limit: 2, Offset: 0})
	if !resp.HasMore {
		t.Error("expected more results")
	}
	if resp.Total != 10 || resp.Limit != 2 {
		t.Errorf("unexpected response %+v", resp)
	}

	last := NewResponse([]int{9, 10}, 10, Params{Limit: 2, Offset: 8})
	if last.HasMore {
		t.Error("expected last page to have no more results")
	}
}
