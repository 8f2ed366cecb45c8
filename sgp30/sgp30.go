// Copyright 2021 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package sgp30 controls a Sensirion SGP30 gas sensor over I²C.
//
// Every word returned by the sensor is followed by a CRC-8 (polynomial 0x31,
// initial value 0xff). Responses failing the checksum are rejected as a
// whole.
//
// # Datasheet
//
// https://sensirion.com/media/documents/984E0DD5/61644B8B/Sensirion_Gas_Sensors_Datasheet_SGP30.pdf
package sgp30

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"strconv"
	"sync"
	"time"

	"github.com/GermanBionicSystems/envcrc/common"
	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/physic"
)

const (
	initAirQuality       uint16 = 0x2003
	measureAirQuality    uint16 = 0x2008
	getIAQBaseline       uint16 = 0x2015
	setIAQBaseline       uint16 = 0x201e
	setHumidity          uint16 = 0x2061
	measureTest          uint16 = 0x2032
	getFeatureSetVersion uint16 = 0x202f
	measureRawSignals    uint16 = 0x2050
	getTVOCBaseline      uint16 = 0x20b3
	setTVOCBaseline      uint16 = 0x2077
	getSerialID          uint16 = 0x3682

	i2CAddress uint16 = 0x58

	// General call reset: address 0x00 followed by 0x06. Every device on
	// the bus supporting general call resets.
	generalCallAddress uint16 = 0x00
	generalCallReset   byte   = 0x06

	selfTestOK uint16 = 0xd400
)

var errSelfTest = errors.New("sgp30: self test failed")

// commandDuration maps the defined maximum measurement duration from the sensor
var commandDuration = map[uint16]time.Duration{
	initAirQuality:       time.Millisecond * 10,
	measureAirQuality:    time.Millisecond * 12,
	getIAQBaseline:       time.Millisecond * 10,
	setIAQBaseline:       time.Millisecond * 10,
	setHumidity:          time.Millisecond * 10,
	measureTest:          time.Millisecond * 220,
	getFeatureSetVersion: time.Millisecond * 10,
	measureRawSignals:    time.Millisecond * 25,
	getTVOCBaseline:      time.Millisecond * 10,
	setTVOCBaseline:      time.Millisecond * 10,
	getSerialID:          time.Millisecond,
}

// commandResponseLength maps the defined response length including the CRC
var commandResponseLength = map[uint16]int{
	measureAirQuality:    6,
	getIAQBaseline:       6,
	measureTest:          3,
	getFeatureSetVersion: 3,
	measureRawSignals:    6,
	getTVOCBaseline:      3,
	getSerialID:          9,
}

// CO2 represents the current carbon dioxide value in ppm
type CO2 uint16

func (c CO2) String() string {
	return strconv.Itoa(int(c)) + "ppm"
}

// TVOC represents the current total volatile organic compounds value in ppb
type TVOC uint16

func (t TVOC) String() string {
	return strconv.Itoa(int(t)) + "ppb"
}

// Env represents measurements from an environmental sensor.
type Env struct {
	CO2  CO2
	TVOC TVOC
}

// Baseline holds the compensation values of the dynamic baseline algorithm.
type Baseline struct {
	CO2  uint16
	TVOC uint16
}

// Signals holds the raw H2 and ethanol sensor signals.
type Signals struct {
	H2      uint16
	Ethanol uint16
}

// Opts holds the configuration options for the device.
type Opts struct {
	// WarmUp is the time waited after the IAQ init command before the first
	// measurement. During the first 15s the sensor reports fixed values.
	WarmUp time.Duration
	// Interval between IAQ measurements. The baseline algorithm requires
	// 1s.
	Interval time.Duration
	// SelfTest runs the on-chip self test before the IAQ init command.
	// NewI2C fails if the test doesn't pass.
	SelfTest bool
}

// DefaultOpts holds the default configuration options for the device.
var DefaultOpts = Opts{
	WarmUp:   20 * time.Second,
	Interval: time.Second,
}

// NewI2C returns an object that communicates over I2C to SGP30 environmental
// sensor. Measurements run in the background until ctx is done or Halt is
// called. The Opts can be nil.
func NewI2C(ctx context.Context, b i2c.Bus, opts *Opts) (*Dev, error) {
	if opts == nil {
		opts = &DefaultOpts
	}
	d := &Dev{
		d:    &i2c.Dev{Bus: b, Addr: i2CAddress},
		opts: *opts,
		env: Env{
			CO2:  400,
			TVOC: 0,
		},
	}
	if d.opts.Interval <= 0 {
		d.opts.Interval = DefaultOpts.Interval
	}
	if err := d.makeDev(ctx); err != nil {
		return nil, err
	}
	return d, nil
}

// Dev is a handle to an initialized SGP30 device.
type Dev struct {
	d    conn.Conn
	opts Opts

	// bus serializes command/response pairs between the measurement loop
	// and the other methods.
	bus sync.Mutex

	mu     sync.Mutex
	env    Env
	err    error
	cancel context.CancelFunc
	done   chan struct{}
}

// AirQuality return the value struct for the sensor
func (d *Dev) AirQuality() Env {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.env
}

// LastError returns the error of the most recent background measurement, nil
// if it succeeded. A checksum failure is reported as a *common.ChecksumError
// and leaves AirQuality unchanged.
func (d *Dev) LastError() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.err
}

func (d *Dev) makeDev(ctx context.Context) error {
	// The self test must run before "sgp30_iaq_init", it resets the
	// baseline algorithm.
	if d.opts.SelfTest {
		ok, err := d.selfTest()
		if err != nil {
			return err
		}
		if !ok {
			return errSelfTest
		}
	}

	// Sending  a "sgp30_iaq_init" command starts the air quality measurement
	if err := d.initAirQuality(); err != nil {
		return err
	}

	// After the "sgp30_iaq_init" command, a "sgp30_measure_iaq" command has to be sent in regular
	// intervals of 1s to ensure proper operation of the dynamic baseline compensation algorithm.
	d.update()

	ctx, d.cancel = context.WithCancel(ctx)
	d.done = make(chan struct{})
	ticker := time.NewTicker(d.opts.Interval)
	go func() {
		defer close(d.done)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				d.update()
			case <-ctx.Done():
				return
			}
		}
	}()

	return nil
}

func (d *Dev) update() {
	err := d.measure()
	if err != nil {
		log.Print(err)
	}
	d.mu.Lock()
	d.err = err
	d.mu.Unlock()
}

func (d *Dev) initAirQuality() error {
	err := d.writeCommand(initAirQuality)
	if err == nil {
		time.Sleep(d.opts.WarmUp)
	}
	return err
}

func (d *Dev) measure() error {
	words, err := d.readWords(measureAirQuality)
	if err != nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	d.env.CO2 = CO2(words[0])
	d.env.TVOC = TVOC(words[1])

	return nil
}

// SelfTest runs the on-chip self test on a running device. It returns false
// if the sensor answered with a valid response other than the expected
// pattern.
//
// The self test resets the baseline algorithm, so the current baseline is
// read first and restored afterwards. Use Opts.SelfTest to test the sensor
// once at start up instead.
func (d *Dev) SelfTest() (bool, error) {
	b, err := d.Baseline()
	if err != nil {
		return false, err
	}
	ok, err := d.selfTest()
	if err != nil {
		return false, err
	}
	if err := d.SetBaseline(b); err != nil {
		return false, err
	}
	return ok, nil
}

func (d *Dev) selfTest() (bool, error) {
	words, err := d.readWords(measureTest)
	if err != nil {
		return false, err
	}
	return words[0] == selfTestOK, nil
}

// SerialID returns the 48 bit serial number of the sensor.
func (d *Dev) SerialID() (uint64, error) {
	words, err := d.readWords(getSerialID)
	if err != nil {
		return 0, err
	}
	return uint64(words[0])<<32 | uint64(words[1])<<16 | uint64(words[2]), nil
}

// FeatureSet returns the product type (0 for the SGP30) and the product
// version.
func (d *Dev) FeatureSet() (productType byte, version byte, err error) {
	words, err := d.readWords(getFeatureSetVersion)
	if err != nil {
		return 0, 0, err
	}
	return byte(words[0] >> 12), byte(words[0]), nil
}

// RawSignals returns the raw H2 and ethanol signals.
func (d *Dev) RawSignals() (Signals, error) {
	words, err := d.readWords(measureRawSignals)
	if err != nil {
		return Signals{}, err
	}
	return Signals{H2: words[0], Ethanol: words[1]}, nil
}

// Baseline returns the current baseline of the IAQ algorithm. Store it to
// restore it with SetBaseline after a power cycle.
func (d *Dev) Baseline() (Baseline, error) {
	words, err := d.readWords(getIAQBaseline)
	if err != nil {
		return Baseline{}, err
	}
	return Baseline{CO2: words[0], TVOC: words[1]}, nil
}

// SetBaseline restores a baseline previously returned by Baseline.
func (d *Dev) SetBaseline(b Baseline) error {
	// The sensor expects the words in the reverse order of Baseline().
	return d.writeCommand(setIAQBaseline, b.TVOC, b.CO2)
}

// TVOCBaseline returns the TVOC inceptive baseline.
func (d *Dev) TVOCBaseline() (uint16, error) {
	words, err := d.readWords(getTVOCBaseline)
	if err != nil {
		return 0, err
	}
	return words[0], nil
}

// SetTVOCBaseline sets the TVOC inceptive baseline.
func (d *Dev) SetTVOCBaseline(v uint16) error {
	return d.writeCommand(setTVOCBaseline, v)
}

// SetAbsoluteHumidity enables humidity compensation. ah is in g/m³ and must
// be below 256. 0 disables the compensation.
func (d *Dev) SetAbsoluteHumidity(ah float64) error {
	if ah < 0 || ah >= 256 {
		return fmt.Errorf("sgp30: absolute humidity %f g/m³ out of range", ah)
	}
	return d.writeCommand(setHumidity, uint16(ah*256))
}

// Halt stops the background measurements. Implements conn.Resource.
func (d *Dev) Halt() error {
	if d.cancel == nil {
		return nil
	}
	d.cancel()
	<-d.done
	return nil
}

func (d *Dev) String() string {
	return "sgp30"
}

// SoftReset sends a general call reset on the bus.
//
// Warning: all devices on the bus that support general call mode reset.
func SoftReset(b i2c.Bus) error {
	dev := i2c.Dev{Bus: b, Addr: generalCallAddress}
	if err := dev.Tx([]byte{generalCallReset}, nil); err != nil {
		return fmt.Errorf("sgp30: error resetting %w", err)
	}
	return nil
}

// readWords sends cmd and returns the validated words of its response.
func (d *Dev) readWords(cmd uint16) ([]uint16, error) {
	b := make([]byte, commandResponseLength[cmd])
	if err := d.readCommand(cmd, b); err != nil {
		return nil, err
	}
	words, err := common.Words(b)
	if err != nil {
		return nil, fmt.Errorf("sgp30: command 0x%04x %w", cmd, err)
	}
	return words, nil
}

func (d *Dev) readCommand(cmd uint16, b []byte) error {
	if len(b) == 0 || len(b) != commandResponseLength[cmd] {
		return errors.New("sgp30: response length mismatch")
	}

	d.bus.Lock()
	defer d.bus.Unlock()

	regAddr := []byte{byte(cmd >> 8), byte(cmd & 0xFF)}
	if err := d.d.Tx(regAddr, nil); err != nil {
		return fmt.Errorf("sgp30: error transmitting %w", err)
	}
	time.Sleep(commandDuration[cmd])

	if err := d.d.Tx(nil, b); err != nil {
		return fmt.Errorf("sgp30: error reading %w", err)
	}
	return nil
}

// writeCommand sends cmd followed by its parameter words, each with its CRC.
func (d *Dev) writeCommand(cmd uint16, params ...uint16) error {
	w := append([]byte{byte(cmd >> 8), byte(cmd & 0xFF)}, common.MakeWords(params...)...)

	d.bus.Lock()
	defer d.bus.Unlock()

	if err := d.d.Tx(w, nil); err != nil {
		return fmt.Errorf("sgp30: error transmitting %w", err)
	}
	time.Sleep(commandDuration[cmd])
	return nil
}

var _ conn.Resource = &Dev{}

// AbsoluteHumidity converts a temperature and relative humidity, as read from
// a humidity sensor, into g/m³ for SetAbsoluteHumidity.
func AbsoluteHumidity(t physic.Temperature, rh physic.RelativeHumidity) float64 {
	c := t.Celsius()
	r := float64(rh) / float64(physic.PercentRH)
	return 216.7 * (r / 100 * 6.112 * math.Exp(17.62*c/(243.12+c)) / (273.15 + c))
}
