package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"

	"github.com/officeflow/deskchat/internal/audio"
	"github.com/officeflow/deskchat/internal/chat"
	"github.com/officeflow/deskchat/internal/config"
	"github.com/officeflow/deskchat/internal/logger"
	"github.com/officeflow/deskchat/internal/transport"
	"github.com/officeflow/deskchat/internal/voice"
	"github.com/officeflow/deskchat/internal/voice/deepgram"
	"github.com/officeflow/deskchat/internal/voice/speech"
	"github.com/officeflow/deskchat/internal/voice/whisper"
	"github.com/officeflow/deskchat/pkg/office"
)

func main() {
	if err := godotenv.Load(); err != nil {
		logger.L.Debug("no .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		logger.L.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	logger.SetLevel(cfg.Log.Level)

	client := transport.New(cfg.Backend)
	backoffice := office.New(cfg.Backend)

	bridge, err := buildVoice(cfg.Voice)
	if err != nil {
		logger.L.Error("failed to set up voice", "error", err)
		os.Exit(1)
	}

	opts := []chat.Option{
		chat.WithNotifier(func(text string) { fmt.Println("! " + text) }),
	}
	if bridge != nil {
		defer bridge.Close()
		opts = append(opts, chat.WithVoice(bridge))
	}
	session := chat.New(client, opts...)
	logger.L.Info("session started", "session_id", session.ID(), "backend", cfg.Backend.BaseURL)

	ctx := context.Background()

	if h, err := backoffice.Health(ctx); err != nil {
		logger.L.Warn("backend health check failed", "error", err)
		fmt.Println("! Backend is unreachable; replies will fall back until it returns.")
	} else {
		logger.L.Info("backend healthy", "database", h.Database, "agent", h.AIAgent)
	}

	if err := session.Hydrate(ctx); err != nil {
		fmt.Println("! Could not load the earlier conversation; starting fresh.")
	}
	for _, msg := range session.Messages() {
		printMessage(msg)
	}

	fmt.Println("Type a message, or /help for commands.")
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "/") {
			if quit := runCommand(ctx, line, session, backoffice); quit {
				break
			}
			continue
		}
		submit(ctx, session, line)
	}
}

// buildVoice assembles the speech bridge from configuration. Both halves are
// optional; with neither configured there is no bridge at all.
func buildVoice(cfg config.VoiceConfig) (*voice.Bridge, error) {
	var opts []voice.Option

	if cfg.Capture.Provider != "" {
		source, err := captureSource(cfg.Capture)
		if err != nil {
			return nil, err
		}
		switch cfg.Capture.Provider {
		case "whisper":
			opts = append(opts, voice.WithRecognizer(whisper.New(cfg.Capture, source)))
		case "deepgram":
			opts = append(opts, voice.WithRecognizer(deepgram.New(cfg.Capture, source)))
		default:
			return nil, fmt.Errorf("unknown capture provider: %s", cfg.Capture.Provider)
		}
	}

	if cfg.Output.Enabled {
		opts = append(opts,
			voice.WithSynthesizer(speech.New(cfg.Output)),
			voice.WithVoicePreferences(cfg.Output.VoicePreferences),
			voice.WithPlayer(buildPlayer(cfg.Output.Player)),
		)
	}

	if len(opts) == 0 {
		return nil, nil
	}
	return voice.NewBridge(opts...), nil
}

// captureSource yields utterance clips for the recognizer. The terminal
// client reads clips from a file or fifo; µ-law telephony clips are decoded
// to LPCM on the way in.
func captureSource(cfg config.CaptureConfig) (audio.Capture, error) {
	if cfg.Input == "" {
		return nil, errors.New("voice capture needs voice.capture.input set to a clip path")
	}
	var src audio.Capture = audio.FileCapture{Path: cfg.Input}
	if strings.HasSuffix(cfg.Input, ".ulaw") {
		src = audio.ULawCapture{Source: src}
	}
	return src, nil
}

func buildPlayer(command string) audio.Player {
	if command == "" {
		return audio.Discard
	}
	parts := strings.Fields(command)
	return audio.CommandPlayer{Command: parts[0], Args: parts[1:]}
}

func submit(ctx context.Context, session *chat.Session, text string) {
	reply, ok := session.Submit(ctx, text)
	if !ok {
		return
	}
	printMessage(reply)
}

func runCommand(ctx context.Context, line string, session *chat.Session, backoffice *office.Client) bool {
	fields := strings.Fields(line)
	switch fields[0] {
	case "/quit", "/exit":
		return true

	case "/help":
		printHelp()

	case "/voice":
		if len(fields) > 1 {
			session.SetVoiceOutput(fields[1] == "on")
		}
		fmt.Printf("voice output is %s\n", onOff(session.VoiceOutputEnabled()))

	case "/listen":
		listen(ctx, session)

	case "/history":
		for _, msg := range session.Messages() {
			printMessage(msg)
		}

	case "/stats":
		stats, err := backoffice.DashboardStats(ctx)
		if err != nil {
			logger.L.Warn("stats fetch failed", "error", err)
			fmt.Println("! Could not fetch dashboard stats.")
			break
		}
		printStats(stats)

	case "/health":
		h, err := backoffice.Health(ctx)
		if err != nil {
			fmt.Println("! Backend is unreachable.")
			break
		}
		fmt.Printf("backend %s, database %s, agent %s\n", h.Status, h.Database, h.AIAgent)

	default:
		fmt.Println("unknown command; /help lists commands")
	}
	return false
}

func listen(ctx context.Context, session *chat.Session) {
	if !session.CanListen() {
		fmt.Println("! Voice capture is not configured.")
		return
	}

	fmt.Println("listening...")
	transcript, err := session.CaptureVoice(ctx)
	if err != nil {
		var rerr *voice.RecognitionError
		switch {
		case voice.IsAborted(err):
			fmt.Println("capture stopped")
		case errors.Is(err, chat.ErrSessionBusy):
			fmt.Println("! Session is busy.")
		case errors.As(err, &rerr) && rerr.Reason == voice.ReasonNoSpeech:
			fmt.Println("! Didn't catch that. Try again.")
		default:
			fmt.Println("! Voice capture failed.")
		}
		return
	}

	fmt.Printf("you said: %s\n", transcript)
	submit(ctx, session, transcript)
}

func printMessage(msg chat.Message) {
	switch msg.Role {
	case chat.RoleUser:
		fmt.Println("you: " + msg.Content)
	case chat.RoleAssistant:
		fmt.Println("assistant: " + msg.Content)
		if msg.Meta != nil {
			fmt.Println("  (" + metaLine(msg.Meta) + ")")
		}
	}
}

func metaLine(meta *chat.Metadata) string {
	var parts []string
	if meta.Model != "" {
		parts = append(parts, meta.Model)
	}
	if meta.Confidence != "" {
		parts = append(parts, "confidence "+string(meta.Confidence))
	}
	if meta.Score != nil {
		parts = append(parts, fmt.Sprintf("score %.2f", *meta.Score))
	}
	if meta.ProcessingTime != nil {
		parts = append(parts, fmt.Sprintf("%.1fs", *meta.ProcessingTime))
	}
	return strings.Join(parts, ", ")
}

func printStats(stats *office.DashboardStats) {
	fmt.Printf("customers: %d (%d new this month)\n", stats.TotalCustomers, stats.NewCustomersThisMonth)
	fmt.Printf("pending refunds: %d, open issues: %d\n", stats.PendingRefunds, stats.OpenIssues)
	fmt.Printf("revenue last 30 days: $%.2f\n", stats.TotalRevenue30Days)
	for _, row := range stats.RevenueByProduct {
		fmt.Printf("  %s: $%.2f (%d sales)\n", row.Product, row.Revenue, row.Count)
	}
	if len(stats.RecentActivities) > 0 {
		fmt.Println("recent activity:")
		for _, a := range stats.RecentActivities {
			fmt.Printf("  [%s] %s\n", a.Type, a.Description)
		}
	}
}

func printHelp() {
	fmt.Println(`commands:
  /voice [on|off]  toggle spoken replies
  /listen          capture one voice utterance
  /history         reprint the conversation
  /stats           show the office dashboard
  /health          check the backend
  /quit            leave`)
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}
