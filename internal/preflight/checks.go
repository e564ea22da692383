package preflight

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"time"

	"golang.org/x/sys/unix"

	"mailtriage/internal/config"
	"mailtriage/internal/deps"
	"mailtriage/internal/ledger"
	"mailtriage/internal/triagerun"
)

const (
	minFreeBytes = 50 << 20
	checkTimeout = 30 * time.Second
)

// CheckLLM verifies that the LLM API is reachable and the key is valid.
// It makes a single attempt with a 30-second timeout.
func CheckLLM(ctx context.Context, cfg *config.Config) Result {
	name := fmt.Sprintf("LLM (%s)", cfg.LLM.Provider)
	if cfg.LLM.APIKey == "" {
		return Result{Name: name, Detail: "API key missing"}
	}

	checkCtx, cancel := context.WithTimeout(ctx, checkTimeout)
	defer cancel()

	client, err := triagerun.NewLLMClient(cfg)
	if err != nil {
		return Result{Name: name, Detail: err.Error()}
	}
	if err := client.HealthCheck(checkCtx); err != nil {
		return Result{Name: name, Detail: summarizeNetworkError(err, "LLM API")}
	}
	return Result{Name: name, Passed: true, Detail: "API reachable"}
}

// CheckTelegram confirms the bot token with getMe.
func CheckTelegram(ctx context.Context, cfg *config.Config) Result {
	const name = "Telegram"
	if cfg.Alert.TelegramBotToken == "" {
		return Result{Name: name, Detail: "bot token missing"}
	}
	if cfg.Alert.TelegramChatID == "" {
		return Result{Name: name, Detail: "chat id missing"}
	}

	checkCtx, cancel := context.WithTimeout(ctx, checkTimeout)
	defer cancel()

	alerter, err := triagerun.NewAlerter(cfg, nil)
	if err != nil {
		return Result{Name: name, Detail: err.Error()}
	}
	bot, err := alerter.Ping(checkCtx)
	if err != nil {
		return Result{Name: name, Detail: summarizeNetworkError(err, "Telegram API")}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("bot @%s", bot.Username)}
}

// CheckMailSource verifies the Gmail credential files or logs in over IMAP.
func CheckMailSource(ctx context.Context, cfg *config.Config) Result {
	switch cfg.Mail.Provider {
	case config.MailProviderIMAP:
		const name = "IMAP"
		if cfg.Mail.IMAPPassword == "" {
			return Result{Name: name, Detail: "password missing"}
		}
		checkCtx, cancel := context.WithTimeout(ctx, checkTimeout)
		defer cancel()
		if err := triagerun.NewIMAP(cfg, nil, nil).Ping(checkCtx); err != nil {
			return Result{Name: name, Detail: summarizeNetworkError(err, "IMAP server")}
		}
		return Result{Name: name, Passed: true, Detail: fmt.Sprintf("logged in to %s", cfg.IMAPAddress())}
	default:
		const name = "Gmail"
		if _, err := os.Stat(cfg.Paths.CredentialsFile); err != nil {
			return Result{Name: name, Detail: fmt.Sprintf("credentials file %s unreadable: %v", cfg.Paths.CredentialsFile, err)}
		}
		if _, err := os.Stat(cfg.Paths.TokenFile); err != nil {
			return Result{Name: name, Detail: fmt.Sprintf("token %s missing, run 'mailtriage auth gmail'", cfg.Paths.TokenFile)}
		}
		return Result{Name: name, Passed: true, Detail: "credentials and token present"}
	}
}

// CheckOCR verifies the OCR binary is on PATH.
func CheckOCR(ctx context.Context, cfg *config.Config) Result {
	const name = "Tesseract OCR"
	statuses := deps.CheckBinaries(ctx, []deps.Requirement{{
		Name:        name,
		Command:     cfg.Mail.OCRBinary,
		Description: "Extracts text from image attachments",
		VersionArgs: []string{"--version"},
	}})
	status := statuses[0]
	if !status.Available {
		return Result{Name: name, Detail: status.Detail}
	}
	detail := status.Command
	if status.Version != "" {
		detail = status.Version
	}
	return Result{Name: name, Passed: true, Detail: detail}
}

// CheckLedger opens the ledger and reports its size.
func CheckLedger(ctx context.Context, cfg *config.Config) Result {
	name := fmt.Sprintf("Ledger (%s)", cfg.Ledger.Driver)
	store, err := ledger.Open(ctx, cfg)
	if err != nil {
		return Result{Name: name, Detail: err.Error()}
	}
	defer store.Close()
	counts, err := store.Count(ctx)
	if err != nil {
		return Result{Name: name, Detail: err.Error()}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%d processed, %d moved", counts.Processed, counts.Moved)}
}

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckFreeSpace verifies the filesystem holding path has at least minBytes available.
func CheckFreeSpace(name, path string, minBytes uint64) Result {
	var stat unix.Statfs_t
	if err := unix.Statfs(path, &stat); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: statfs: %v)", path, err)}
	}
	available := stat.Bavail * uint64(stat.Bsize)
	detail := fmt.Sprintf("%d MiB available", available>>20)
	if available < minBytes {
		return Result{Name: name, Detail: detail + fmt.Sprintf(" (need %d MiB)", minBytes>>20)}
	}
	return Result{Name: name, Passed: true, Detail: detail}
}

// summarizeNetworkError produces a human-readable summary for check failures.
func summarizeNetworkError(err error, target string) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Sprintf("check timed out (%s unresponsive)", target)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Sprintf("check timed out (%s unreachable)", target)
	}
	return err.Error()
}
