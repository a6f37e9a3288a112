package device

import "testing"

func TestResolveIdentity(t *testing.T) {
	cases := []struct {
		name      string
		authed    bool
		tokenMail string
		bodyMail  string
		want      string
	}{
		{
			name:      "token identity beats the body field",
			authed:    true,
			tokenMail: "owner@example.com",
			bodyMail:  "attacker@example.com",
			want:      "owner@example.com",
		},
		{
			name:     "body email serves account-less buyers",
			authed:   false,
			bodyMail: "Guest@Example.com ",
			want:     "guest@example.com",
		},
		{
			name:      "empty token email falls through to the body",
			authed:    true,
			tokenMail: "",
			bodyMail:  "guest@example.com",
			want:      "guest@example.com",
		},
		{
			name:      "token email is normalized too",
			authed:    true,
			tokenMail: " Owner@Example.COM",
			bodyMail:  "",
			want:      "owner@example.com",
		},
		{
			name:   "nothing resolves to empty",
			authed: false,
			want:   "",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := resolveIdentity(tc.tokenMail, tc.authed, tc.bodyMail); got != tc.want {
				t.Errorf("resolveIdentity(%q, %v, %q) = %q, want %q",
					tc.tokenMail, tc.authed, tc.bodyMail, got, tc.want)
			}
		})
	}
}
