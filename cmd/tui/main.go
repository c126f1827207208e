package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/iscfl/trading-signals/internal/config"
)

const defaultConfigPath = "internal/config/config.yaml"

func main() {
	reader := bufio.NewReader(os.Stdin)

	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	for {
		fmt.Println("\n=== Paper Trader Control ===")
		fmt.Println("1) Show configuration summary")
		fmt.Println("2) Edit session settings")
		fmt.Println("3) Edit signal settings")
		fmt.Println("4) Save config")
		fmt.Println("5) Launch paper engine")
		fmt.Println("6) Reload config from disk")
		fmt.Println("0) Exit")
		fmt.Print("Select option: ")

		input, _ := reader.ReadString('\n')
		choice := strings.TrimSpace(input)

		switch choice {
		case "1":
			printSummary(cfg)
		case "2":
			editSession(reader, cfg)
		case "3":
			editSignal(reader, cfg)
		case "4":
			if err := saveConfig(cfg); err != nil {
				fmt.Fprintf(os.Stderr, "save failed: %v\n", err)
			} else {
				fmt.Println("config saved")
			}
		case "5":
			launchPaper(reader)
		case "6":
			reloaded, err := loadConfig()
			if err != nil {
				fmt.Fprintf(os.Stderr, "reload failed: %v\n", err)
			} else {
				cfg = reloaded
				fmt.Println("config reloaded")
			}
		case "0":
			return
		default:
			fmt.Println("unknown option")
		}
	}
}

func printSummary(cfg *config.Config) {
	fmt.Println("\n--- Configuration Summary ---")
	fmt.Printf("Instrument: %s @ %s\n", cfg.Session.Instrument, cfg.Session.Timeframe)
	fmt.Printf("Initial investment: $%.2f\n", cfg.Session.InitialInvestment)
	fmt.Printf("Trade quantity: %d | allow short: %v\n", cfg.Sizing.Quantity, cfg.Session.AllowShort)
	fmt.Printf("Per-trade notional cap: $%.2f | open shares cap: %d\n", cfg.Risk.MaxNotionalPerTrade, cfg.Risk.MaxOpenShares)
	fmt.Printf("Classifier: %s (min signal interval %ds)\n", cfg.Signal.Mode, cfg.Signal.MinIntervalSecs)
	fmt.Printf("Feed: %s", cfg.Feed.Provider)
	if cfg.Feed.Provider == "ws" {
		fmt.Printf(" (%s)", cfg.Feed.WSBaseURL)
	}
	fmt.Println()
	symbols := make([]string, 0, len(cfg.Feed.Instruments))
	for _, inst := range cfg.Feed.Instruments {
		symbols = append(symbols, inst.Symbol)
	}
	fmt.Println("Instruments:", strings.Join(symbols, ", "))
}

func editSession(reader *bufio.Reader, cfg *config.Config) {
	fmt.Println("\n--- Edit Session ---")
	cfg.Session.Instrument = promptString(reader, "Instrument", cfg.Session.Instrument)
	cfg.Session.Timeframe = promptString(reader, "Timeframe (5m/30m/4h/1d)", cfg.Session.Timeframe)
	cfg.Session.InitialInvestment = promptFloat(reader, "Initial investment (USD)", cfg.Session.InitialInvestment)
	cfg.Sizing.Quantity = int(promptFloat(reader, "Trade quantity", float64(cfg.Sizing.Quantity)))
	cfg.Risk.MaxNotionalPerTrade = promptFloat(reader, "Max notional per trade (USD, 0 disables)", cfg.Risk.MaxNotionalPerTrade)
	cfg.Risk.MaxOpenShares = int(promptFloat(reader, "Max open shares (0 disables)", float64(cfg.Risk.MaxOpenShares)))
}

func editSignal(reader *bufio.Reader, cfg *config.Config) {
	fmt.Println("\n--- Edit Signal ---")
	cfg.Signal.Mode = promptString(reader, "Mode (random/momentum)", cfg.Signal.Mode)
	cfg.Signal.MinIntervalSecs = int(promptFloat(reader, "Min signal interval (secs)", float64(cfg.Signal.MinIntervalSecs)))
	cfg.Signal.MomentumThreshold = promptFloat(reader, "Momentum threshold", cfg.Signal.MomentumThreshold)
	cfg.Signal.MomentumWindowSecs = int(promptFloat(reader, "Momentum window (secs)", float64(cfg.Signal.MomentumWindowSecs)))
}

func launchPaper(reader *bufio.Reader) {
	fmt.Println("Launching paper engine (Ctrl+C to stop)...")
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cmd := exec.CommandContext(ctx, "go", "run", "./cmd/paper")
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.Stdin = os.Stdin

	if err := cmd.Start(); err != nil {
		fmt.Fprintf(os.Stderr, "failed to start engine: %v\n", err)
		return
	}

	go func() {
		_ = cmd.Wait()
		cancel()
	}()

	fmt.Print("\nPress ENTER to stop the engine and return to menu...")
	_, _ = reader.ReadString('\n')
	cancel()
	time.Sleep(500 * time.Millisecond)
}

func promptString(reader *bufio.Reader, label, current string) string {
	fmt.Printf("%s [%s]: ", label, current)
	line, _ := reader.ReadString('\n')
	line = strings.TrimSpace(line)
	if line == "" {
		return current
	}
	return line
}

func promptFloat(reader *bufio.Reader, label string, current float64) float64 {
	fmt.Printf("%s [%.2f]: ", label, current)
	line, _ := reader.ReadString('\n')
	line = strings.TrimSpace(line)
	if line == "" {
		return current
	}
	val, err := strconv.ParseFloat(line, 64)
	if err != nil {
		fmt.Printf("invalid number, keeping %.2f\n", current)
		return current
	}
	return val
}

func loadConfig() (*config.Config, error) {
	return config.Load(locateConfig())
}

func saveConfig(cfg *config.Config) error {
	return config.Save(locateConfig(), cfg)
}

func locateConfig() string {
	if filepath.IsAbs(defaultConfigPath) {
		return defaultConfigPath
	}
	return filepath.Clean(defaultConfigPath)
}
