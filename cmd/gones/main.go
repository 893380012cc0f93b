// Package main implements the gones NES emulator executable.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"gones/internal/config"
	"gones/internal/disasm"
	"gones/internal/logging"
	"gones/internal/machine"
	"gones/internal/version"
	"gones/internal/video"
)

func main() {
	var (
		configFile = flag.String("config", "", "Path to configuration file")
		debug      = flag.Bool("debug", false, "Enable debug logging")
		help       = flag.Bool("help", false, "Show help message")
		showVer    = flag.Bool("version", false, "Show version information")
	)
	flag.Parse()

	if *help {
		printUsage()
		os.Exit(0)
	}
	if *showVer {
		version.PrintBuildInfo()
		os.Exit(0)
	}

	args := flag.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(1)
	}
	romPath := args[0]

	cfg := config.New()
	configPath := *configFile
	if configPath == "" {
		configPath = config.DefaultPath()
	}
	if err := cfg.LoadFromFile(configPath); err != nil {
		log.Fatalf("load config: %v", err)
	}
	if *debug {
		cfg.Debug.LogLevel = "DEBUG"
	}
	logging.SetDefaultLevel(logging.ParseLevel(cfg.Debug.LogLevel))

	m := machine.New(cfg)
	if err := m.LoadROM(romPath); err != nil {
		log.Fatalf("load ROM: %v", err)
	}

	if len(args) >= 2 && args[1] == "disassemble" {
		if len(args) != 4 {
			fmt.Fprintln(os.Stderr, "usage: gones <rom-path> disassemble <start-hex> <end-hex>")
			os.Exit(1)
		}
		if err := runDisassemble(m, args[2], args[3]); err != nil {
			log.Fatalf("disassemble: %v", err)
		}
		os.Exit(0)
	}

	setupGracefulShutdown(m)

	title := fmt.Sprintf("gones - %s", romPath)
	if err := video.Run(m, cfg, title, m.SaveRAM); err != nil {
		shutdownErr := m.Shutdown()
		if shutdownErr != nil {
			log.Printf("save RAM on error exit: %v", shutdownErr)
		}
		log.Fatalf("run: %v", err)
	}

	if err := m.Shutdown(); err != nil {
		log.Printf("save RAM on exit: %v", err)
	}
}

// runDisassemble prints a static disassembly between two hex addresses,
// in the fixed-column reference-log format.
func runDisassemble(m *machine.Machine, startHex, endHex string) error {
	start, err := parseHexAddr(startHex)
	if err != nil {
		return fmt.Errorf("start address: %w", err)
	}
	end, err := parseHexAddr(endHex)
	if err != nil {
		return fmt.Errorf("end address: %w", err)
	}

	lines := disasm.Disassemble(m.Bus.Memory, m.Bus.CPU, start, end)

	cpuState := m.Bus.GetCPUState()
	ppuState := m.Bus.GetPPUState()
	state := disasm.CPUState{
		A:        cpuState.A,
		X:        cpuState.X,
		Y:        cpuState.Y,
		P:        m.Bus.CPU.GetStatusByte(),
		SP:       cpuState.SP,
		Cycles:   cpuState.Cycles,
		Scanline: ppuState.Scanline,
	}

	for _, l := range lines {
		fmt.Println(disasm.Trace(l, state))
	}
	return nil
}

func parseHexAddr(s string) (uint16, error) {
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "$")
	v, err := strconv.ParseUint(s, 16, 16)
	if err != nil {
		return 0, err
	}
	return uint16(v), nil
}

// setupGracefulShutdown persists battery-backed save RAM before exiting on
// SIGINT/SIGTERM.
func setupGracefulShutdown(m *machine.Machine) {
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-c
		if err := m.Shutdown(); err != nil {
			log.Printf("save RAM on interrupt: %v", err)
		}
		os.Exit(0)
	}()
}

func printUsage() {
	fmt.Println("gones - a Go NES emulator")
	fmt.Println()
	fmt.Println("USAGE:")
	fmt.Println("  gones [options] <rom-path>")
	fmt.Println("  gones <rom-path> disassemble <start-hex> <end-hex>")
	fmt.Println()
	fmt.Println("OPTIONS:")
	flag.PrintDefaults()
}
