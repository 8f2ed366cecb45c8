// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package envcrc is a container for the CRC engine and the environmental
// sensor drivers that depend on it.
//
// See package crc for the checksum engine, and packages sht21 and sgp30 for
// the drivers.
package envcrc
