// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// envmon polls an SHT21 and an SGP30 on the same I²C bus and prints the
// readings that passed their CRC check.
//
// Readings failing their checksum are shown as "Err" and logged. The SHT21
// readings feed the SGP30 humidity compensation.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"time"

	"github.com/GermanBionicSystems/envcrc/common"
	"github.com/GermanBionicSystems/envcrc/crc"
	"github.com/GermanBionicSystems/envcrc/readout"
	"github.com/GermanBionicSystems/envcrc/sgp30"
	"github.com/GermanBionicSystems/envcrc/sht21"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/host/v3"
)

func printChecks(w io.Writer) {
	for _, p := range crc.Presets {
		tab := crc.MustNew(p)
		got := tab.Checksum([]byte("123456789"))
		status := "ok"
		if got != p.Check || got != crc.Reference(p, []byte("123456789")) {
			status = "FAIL"
		}
		fmt.Fprintf(w, "%-12s check=0x%0*x %s\n", p.Name, p.Size()*2, got, status)
	}
}

func mainImpl() error {
	busName := flag.String("bus", "", "I²C bus to use")
	interval := flag.Duration("interval", 2*time.Second, "time between two readings")
	warmUp := flag.Duration("warmup", sgp30.DefaultOpts.WarmUp, "SGP30 warm up time")
	png := flag.String("png", "", "write a PNG snapshot of the last readings to this file")
	check := flag.Bool("check", false, "print the check value of every CRC standard and exit")
	flag.Parse()

	if *check {
		printChecks(os.Stdout)
		return nil
	}

	if _, err := host.Init(); err != nil {
		return err
	}
	bus, err := i2creg.Open(*busName)
	if err != nil {
		return err
	}
	defer bus.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	hum, err := sht21.New(bus, sht21.DefaultAddress)
	if err != nil {
		return err
	}
	if err := hum.Reset(); err != nil {
		return err
	}
	gas, err := sgp30.NewI2C(ctx, bus, &sgp30.Opts{WarmUp: *warmUp, Interval: time.Second, SelfTest: true})
	if err != nil {
		return err
	}
	defer gas.Halt()

	term := readout.NewTerminal(nil)
	defer term.Halt()
	ticker := time.NewTicker(*interval)
	defer ticker.Stop()
	for {
		env := physic.Env{}
		err := hum.Sense(&env)
		var ce *common.ChecksumError
		if errors.As(err, &ce) {
			log.Printf("sht21: discarding reading: %v", err)
		} else if err != nil {
			return err
		} else if err := gas.SetAbsoluteHumidity(sgp30.AbsoluteHumidity(env.Temperature, env.Humidity)); err != nil {
			log.Print(err)
		}
		aq := gas.AirQuality()
		readings := []readout.Reading{
			{Kind: readout.CO2, Value: float64(aq.CO2), Valid: gas.LastError() == nil},
			{Kind: readout.Temperature, Value: env.Temperature.Celsius(), Valid: err == nil},
			{Kind: readout.Humidity, Value: float64(env.Humidity) / float64(physic.PercentRH), Valid: err == nil},
		}
		if err := term.Write(readings); err != nil {
			return err
		}
		if *png != "" {
			if err := readout.Snapshot(*png, readings, nil); err != nil {
				return err
			}
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func main() {
	if err := mainImpl(); err != nil {
		fmt.Fprintf(os.Stderr, "envmon: %s.\n", err)
		os.Exit(1)
	}
}
