package main

import (
	"context"
	"os/exec"
	"runtime"
	"time"
)

const browserTimeout = 5 * time.Second

// openBrowser opens url with the platform's default handler.
func openBrowser(url string) error {
	ctx, cancel := context.WithTimeout(context.Background(), browserTimeout)
	defer cancel()

	return browserCommand(ctx, runtime.GOOS, url).Run()
}

func browserCommand(ctx context.Context, goos, url string) *exec.Cmd {
	switch goos {
	case "darwin":
		return exec.CommandContext(ctx, "open", url)
	case "windows":
		return exec.CommandContext(ctx, "rundll32", "url.dll,FileProtocolHandler", url)
	default:
		return exec.CommandContext(ctx, "xdg-open", url)
	}
}
