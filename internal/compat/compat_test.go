package compat

import (
	"sync"
	"testing"
)

const (
	uaChrome6   = "Mozilla/5.0 (Windows; U; Windows NT 6.1; en-US) AppleWebKit/534.3 (KHTML, like Gecko) Chrome/6.0.472.63 Safari/534.3"
	uaChrome120 = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	uaFirefox36 = "Mozilla/5.0 (Windows; U; Windows NT 6.1; en-US; rv:1.9.2.8) Gecko/20100722 Firefox/3.6.8"
	uaFirefox4  = "Mozilla/5.0 (Windows NT 6.1; rv:2.0) Gecko/20100101 Firefox/4.0"
)

func TestSupportedRealUserAgents(t *testing.T) {
	g := NewGate(DefaultMinimums())

	tests := []struct {
		name string
		ua   string
		want bool
	}{
		{"old chrome", uaChrome6, false},
		{"new chrome", uaChrome120, true},
		{"old firefox", uaFirefox36, false},
		{"firefox at minimum", uaFirefox4, true},
		{"empty header", "", true},
		{"garbage", "%%% definitely not a browser %%%", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := g.Supported(tt.ua); got != tt.want {
				t.Errorf("Supported(%q) = %v, want %v (parsed %+v)", tt.ua, got, tt.want, Parse(tt.ua))
			}
		})
	}
}

func TestSupportedClient(t *testing.T) {
	g := NewGate(DefaultMinimums())

	tests := []struct {
		client Client
		want   bool
	}{
		{Client{"Internet Explorer", "9.0"}, false},
		{Client{"Internet Explorer", "10.0"}, true},
		{Client{"Internet Explorer", "11.0"}, true},
		{Client{"Chrome", "6.9.9"}, false},
		{Client{"Chrome", "7.0.517.44"}, true},
		{Client{"chrome", "88"}, true},
		{Client{"Firefox", "3.6.28"}, false},
		{Client{"Safari", "1.0"}, true},
		{Client{"", ""}, true},
		{Client{"Chrome", "garbled"}, true},
	}

	for _, tt := range tests {
		if got := g.SupportedClient(tt.client); got != tt.want {
			t.Errorf("SupportedClient(%+v) = %v, want %v", tt.client, got, tt.want)
		}
	}
}

func TestCanonical(t *testing.T) {
	tests := map[string]string{
		"7.0.517.44": "v7.0.517",
		"10.0":       "v10.0.0",
		"4":          "v4.0.0",
		"v2.1":       "v2.1.0",
		"12.0b3":     "v12.0.0",
		"05.1":       "v5.1.0",
		"":           "",
		"beta":       "",
	}
	for in, want := range tests {
		if got := canonical(in); got != want {
			t.Errorf("canonical(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestGateIsImmutable(t *testing.T) {
	mins := DefaultMinimums()
	g := NewGate(mins)
	mins[1].Version = "999.0"

	if !g.SupportedClient(Client{"Chrome", "8.0"}) {
		t.Error("mutating the input table must not change the gate")
	}
	mins[0].Family = "Changed"
	if g.SupportedClient(Client{"Internet Explorer", "9.0"}) {
		t.Error("renaming an input entry must not change the gate")
	}
}

func TestSupportedConcurrent(t *testing.T) {
	g := NewGate(DefaultMinimums())
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				if g.Supported(uaChrome6) {
					t.Error("old chrome reported supported")
					return
				}
			}
		}()
	}
	wg.Wait()
}
