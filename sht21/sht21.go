// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package sht21

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/GermanBionicSystems/envcrc/common"
	"github.com/GermanBionicSystems/envcrc/crc"
	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/physic"
)

// DefaultAddress is the only address the SHT21 responds to.
const DefaultAddress i2c.Addr = 0x40

// Resolution selects the measurement resolution of humidity and
// temperature.
type Resolution byte

const (
	// RH 12 bit, T 14 bit. Power-on default.
	RH12T14 Resolution = 0x00
	// RH 8 bit, T 12 bit.
	RH8T12 Resolution = 0x01
	// RH 10 bit, T 13 bit.
	RH10T13 Resolution = 0x80
	// RH 11 bit, T 11 bit.
	RH11T11 Resolution = 0x81
)

const (
	cmdTriggerTemperature byte = 0xf3
	cmdTriggerHumidity    byte = 0xf5
	cmdReadUserRegister   byte = 0xe7
	cmdWriteUserRegister  byte = 0xe6
	cmdSoftReset          byte = 0xfe

	// Maximum conversion times at the highest resolution.
	temperatureDelay = 90 * time.Millisecond
	humidityDelay    = 35 * time.Millisecond
	resetDelay       = 15 * time.Millisecond

	regResolutionMask byte = 0x81
	regEndOfBattery   byte = 1 << 6
	regHeater         byte = 1 << 2

	// The two low bits of a measurement are status bits. Bit 1 is set for a
	// humidity measurement.
	statusMask     uint16 = 0x0003
	statusHumidity uint16 = 0x0002

	minSampleDuration = temperatureDelay + humidityDelay

	minRH = 0 * physic.PercentRH
	maxRH = 100 * physic.PercentRH
)

// CRC is the checksum standard of the SHT2x family. Unlike the newer
// Sensirion sensors the register starts from 0x00.
var CRC = crc.Params{Width: 8, Poly: 0x31, Check: 0xa2, Name: "CRC-8/SHT2x"}

// crcTable is built on first use and shared read-only afterwards.
var crcTable = sync.OnceValue(func() *crc.Table {
	return crc.MustNew(CRC)
})

// Dev represents a SHT21 temperature/humidity sensor.
type Dev struct {
	d        *i2c.Dev
	mu       sync.Mutex
	shutdown chan struct{}
	wg       sync.WaitGroup
}

// New returns a handle to a SHT21 sensor.
func New(bus i2c.Bus, addr i2c.Addr) (*Dev, error) {
	if addr != DefaultAddress {
		return nil, fmt.Errorf("sht21: invalid address 0x%x", uint16(addr))
	}
	return &Dev{d: &i2c.Dev{Bus: bus, Addr: uint16(addr)}}, nil
}

// Sense measures the temperature, then the humidity. If a checksum does not
// match, the returned error wraps a *common.ChecksumError and e is left
// unchanged.
func (dev *Dev) Sense(e *physic.Env) error {
	dev.mu.Lock()
	defer dev.mu.Unlock()
	t, err := dev.measure(cmdTriggerTemperature, temperatureDelay)
	if err != nil {
		return fmt.Errorf("sht21: error reading temperature %w", err)
	}
	h, err := dev.measure(cmdTriggerHumidity, humidityDelay)
	if err != nil {
		return fmt.Errorf("sht21: error reading humidity %w", err)
	}
	e.Temperature = countToTemp(t)
	e.Humidity = countToHumidity(h)
	e.Pressure = 0
	return nil
}

// measure triggers a no-hold master measurement, waits for the conversion
// and returns the raw value with the status bits cleared.
func (dev *Dev) measure(cmd byte, delay time.Duration) (uint16, error) {
	if err := dev.d.Tx([]byte{cmd}, nil); err != nil {
		return 0, err
	}
	time.Sleep(delay)
	r := make([]byte, 3)
	if err := dev.d.Tx(nil, r); err != nil {
		return 0, err
	}
	if err := common.CheckWordsTable(crcTable(), r); err != nil {
		return 0, err
	}
	raw := uint16(r[0])<<8 | uint16(r[1])
	if humidity := raw&statusHumidity != 0; humidity != (cmd == cmdTriggerHumidity) {
		return 0, errors.New("unexpected measurement type")
	}
	return raw &^ statusMask, nil
}

// T = -46.85 + 175.72 * count / 2^16
func countToTemp(count uint16) physic.Temperature {
	c := -46.85 + 175.72*float64(count)/65536
	return physic.Temperature(c*float64(physic.Kelvin)) + physic.ZeroCelsius
}

// RH = -6 + 125 * count / 2^16
func countToHumidity(count uint16) physic.RelativeHumidity {
	val := physic.RelativeHumidity((-6.0 + 125.0*float64(count)/65536) * float64(physic.PercentRH))
	if val < minRH {
		val = minRH
	} else if val > maxRH {
		val = maxRH
	}
	return val
}

// UserRegister returns the raw user register.
func (dev *Dev) UserRegister() (byte, error) {
	dev.mu.Lock()
	defer dev.mu.Unlock()
	return dev.readUserRegister()
}

func (dev *Dev) readUserRegister() (byte, error) {
	r := []byte{0}
	if err := dev.d.Tx([]byte{cmdReadUserRegister}, r); err != nil {
		return 0, fmt.Errorf("sht21: error reading user register %w", err)
	}
	return r[0], nil
}

// updateUserRegister replaces the bits of mask with val. Reserved bits are
// written back unchanged as required by the datasheet.
func (dev *Dev) updateUserRegister(mask, val byte) error {
	reg, err := dev.readUserRegister()
	if err != nil {
		return err
	}
	reg = reg&^mask | val&mask
	if err := dev.d.Tx([]byte{cmdWriteUserRegister, reg}, nil); err != nil {
		return fmt.Errorf("sht21: error writing user register %w", err)
	}
	return nil
}

// SetResolution sets the measurement resolution.
func (dev *Dev) SetResolution(res Resolution) error {
	switch res {
	case RH12T14, RH8T12, RH10T13, RH11T11:
	default:
		return fmt.Errorf("sht21: invalid resolution 0x%x", byte(res))
	}
	dev.mu.Lock()
	defer dev.mu.Unlock()
	return dev.updateUserRegister(regResolutionMask, byte(res))
}

// SetHeater turns the on-chip heater on or off.
func (dev *Dev) SetHeater(on bool) error {
	var val byte
	if on {
		val = regHeater
	}
	dev.mu.Lock()
	defer dev.mu.Unlock()
	return dev.updateUserRegister(regHeater, val)
}

// EndOfBattery returns true when the supply voltage dropped below 2.25V.
func (dev *Dev) EndOfBattery() (bool, error) {
	reg, err := dev.UserRegister()
	if err != nil {
		return false, err
	}
	return reg&regEndOfBattery != 0, nil
}

// Reset issues a soft reset. The user register is restored to its default
// except for the heater bit.
func (dev *Dev) Reset() error {
	dev.mu.Lock()
	defer dev.mu.Unlock()
	err := dev.d.Tx([]byte{cmdSoftReset}, nil)
	if err != nil {
		err = fmt.Errorf("sht21: error resetting %w", err)
	}
	time.Sleep(resetDelay)
	return err
}

// SenseContinuous continuously reads from the device and sends the output
// to the returned channel. Readings that fail with an error, including a
// checksum error, are skipped. To terminate the read, call Dev.Halt().
func (dev *Dev) SenseContinuous(interval time.Duration) (<-chan physic.Env, error) {
	if interval < minSampleDuration {
		return nil, errors.New("sht21: sample interval is < device sample rate")
	}
	dev.mu.Lock()
	defer dev.mu.Unlock()
	if dev.shutdown != nil {
		return nil, errors.New("sht21: SenseContinuous already running")
	}
	dev.shutdown = make(chan struct{})
	ch := make(chan physic.Env, 16)
	dev.wg.Add(1)
	go func(shutdown <-chan struct{}) {
		defer dev.wg.Done()
		defer close(ch)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-shutdown:
				return
			case <-ticker.C:
				env := physic.Env{}
				if err := dev.Sense(&env); err == nil {
					select {
					case ch <- env:
					case <-shutdown:
						return
					}
				}
			}
		}
	}(dev.shutdown)
	return ch, nil
}

// Halt stops a running SenseContinuous. Implements conn.Resource.
func (dev *Dev) Halt() error {
	dev.mu.Lock()
	if dev.shutdown == nil {
		dev.mu.Unlock()
		return nil
	}
	close(dev.shutdown)
	dev.shutdown = nil
	dev.mu.Unlock()
	dev.wg.Wait()
	return nil
}

// Precision returns the smallest change in readings the device can produce.
// Implements physic.SenseEnv.
func (dev *Dev) Precision(e *physic.Env) {
	e.Temperature = physic.Kelvin / 100
	e.Humidity = 4 * physic.PercentRH / 100
	e.Pressure = 0
}

// String returns a string representation of the device.
func (dev *Dev) String() string {
	return "sht21"
}

var _ conn.Resource = &Dev{}
var _ physic.SenseEnv = &Dev{}
