package main

import (
	"flag"
	"fmt"
	"os"

	"rvemu/sim"
)

func main() {
	elfPath := flag.String("elf", "", "ELF file to load")
	binPath := flag.String("bin", "", "Flat binary to load at 0x0")
	steps := flag.Int("steps", 10_000_000, "Max steps")
	trace := flag.Bool("trace", false, "Print each instruction and IRQ edge")
	memMiB := flag.Int("mem", 16, "RAM MiB (default 16)")
	startPC := flag.Uint("pc", 0, "Override start PC (0 keeps loader entry/reset)")

	flag.Parse()

	// Build the machine: RAM at 0, UART window at sim.UARTBase, guest
	// console on stdout.
	ram := sim.NewRAM(uint64(*memMiB) * 1024 * 1024)
	bus := sim.NewBus(ram)
	chr := sim.NewChardev(os.Stdout)
	irq := sim.NewIRQ("uart0")
	if *trace {
		irq.OnChange = func(level bool) {
			fmt.Fprintf(os.Stderr, "[irq] uart0 level=%v\n", level)
		}
	}
	sim.NewUART(bus, sim.UARTBase, chr, irq)
	cpu := sim.NewCPU(bus)
	cpu.Trace = *trace

	// Load program
	switch {
	case *elfPath != "":
		entry, err := sim.LoadELF(*elfPath, ram)
		if err != nil {
			fmt.Fprintln(os.Stderr, "ELF load error:", err)
			os.Exit(1)
		}
		cpu.PC = uint32(entry)
	case *binPath != "":
		if err := ram.LoadFlat(*binPath, 0); err != nil {
			fmt.Fprintln(os.Stderr, "BIN load error:", err)
			os.Exit(1)
		}
		cpu.PC = 0
	default:
		fmt.Fprintln(os.Stderr, "No program provided. Use -elf or -bin.")
		os.Exit(2)
	}

	if *startPC != 0 {
		cpu.PC = uint32(*startPC)
	}

	// Stdin is read on a side goroutine; bytes only reach the UART here on
	// the run loop, between steps, so all device state stays on one thread.
	input := make(chan byte, 256)
	go func() {
		buf := make([]byte, 1)
		for {
			n, err := os.Stdin.Read(buf)
			if n > 0 {
				input <- buf[0]
			}
			if err != nil {
				close(input)
				return
			}
		}
	}()

	// Run
	for i := 0; i < *steps; i++ {
	drain:
		for {
			select {
			case b, ok := <-input:
				if !ok {
					input = nil
					break drain
				}
				chr.Feed([]byte{b})
			default:
				break drain
			}
		}
		if !cpu.Step() {
			break
		}
	}
}
