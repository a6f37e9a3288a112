package response

import "testing"

func TestCalculatePagination(t *testing.T) {
	cases := []struct {
		name      string
		page      int
		limit     int
		total     int64
		wantPage  int
		wantLimit int
		wantPages int
	}{
		{"exact pages", 1, 10, 100, 1, 10, 10},
		{"partial last page", 2, 10, 95, 2, 10, 10},
		{"single page", 1, 20, 5, 1, 20, 1},
		{"empty result", 1, 10, 0, 1, 10, 0},
		{"page below one resets", 0, 10, 30, 1, 10, 3},
		{"limit below one defaults", 1, 0, 30, 1, 10, 3},
		{"limit capped at 100", 1, 500, 1000, 1, 100, 10},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			meta := CalculatePagination(tc.page, tc.limit, tc.total)
			if meta.CurrentPage != tc.wantPage {
				t.Errorf("CurrentPage = %d, want %d", meta.CurrentPage, tc.wantPage)
			}
			if meta.PerPage != tc.wantLimit {
				t.Errorf("PerPage = %d, want %d", meta.PerPage, tc.wantLimit)
			}
			if meta.TotalPages != tc.wantPages {
				t.Errorf("TotalPages = %d, want %d", meta.TotalPages, tc.wantPages)
			}
			if meta.Total != tc.total {
				t.Errorf("Total = %d, want %d", meta.Total, tc.total)
			}
		})
	}
}
