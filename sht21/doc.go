// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package sht21 controls a Sensirion SHT21 humidity and temperature sensor
// over I²C.
//
// Every measurement is returned by the sensor as two data bytes followed by
// a CRC-8 (polynomial 0x31, initial value 0x00, see CRC). Readings that fail
// the checksum are discarded and reported as an error.
//
// # Datasheet
//
// https://sensirion.com/media/documents/120BBE4C/63500094/Sensirion_Datasheet_Humidity_Sensor_SHT21.pdf
package sht21
