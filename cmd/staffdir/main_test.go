package main

import (
	"testing"

	"github.com/incroft/staffdir/internal/app"
	_ "github.com/incroft/staffdir/internal/testing/guard"
)

func TestMainSkipsStartupInTestMode(t *testing.T) {
	app.RefreshTestMode()
	if !app.InTestMode() {
		t.Fatal("test mode not active")
	}
	// Must return immediately without binding sockets or dialing anything.
	main()
}
