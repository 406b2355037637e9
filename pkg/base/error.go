// Copyright 2021, Chef.  All rights reserved.
// https://github.com/q191201771/tspat
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

package base

import (
	"errors"
	"fmt"
)

// ----- 通用的 ---------------------------------------------------------------------------------------------------------

var ErrShortBuffer = errors.New("tspat: buffer too short")

func NewErrShortBuffer(need, actual int, msg string) error {
	return fmt.Errorf("%w. need=%d, actual=%d, msg=%s", ErrShortBuffer, need, actual, msg)
}

// ----- pkg/mpegts ----------------------------------------------------------------------------------------------------

var (
	ErrTsPacketSize = errors.New("tspat.mpegts: invalid ts packet size")
	ErrTsSyncByte   = errors.New("tspat.mpegts: invalid sync byte")

	// ErrSectionHeader 起始包中的section header无法解析，或者section_syntax_indicator未置位
	ErrSectionHeader = errors.New("tspat.mpegts: invalid section header")

	ErrPatTableId      = errors.New("tspat.mpegts: table_id is not program_association_section")
	ErrPatCrcMismatch  = errors.New("tspat.mpegts: pat crc32 mismatch")
	ErrPatProgramsFull = errors.New("tspat.mpegts: pat programs exceed max")
	ErrPatNotComplete  = errors.New("tspat.mpegts: pat not complete")

	// ErrPatDecodeFault 和 ErrPatEncodeFault 只用于自检诊断，不影响pat本身的状态
	ErrPatDecodeFault = errors.New("tspat.mpegts: pat decode path fault")
	ErrPatEncodeFault = errors.New("tspat.mpegts: pat encode path fault")
)

func NewErrTsPacketSize(actual int) error {
	return fmt.Errorf("%w. actual=%d", ErrTsPacketSize, actual)
}

func NewErrTsSyncByte(b byte) error {
	return fmt.Errorf("%w. b=0x%02x", ErrTsSyncByte, b)
}

func NewErrPatTableId(tid uint8) error {
	return fmt.Errorf("%w. table_id=0x%02x", ErrPatTableId, tid)
}

func NewErrPatCrcMismatch(check, inData uint32) error {
	return fmt.Errorf("%w. check=%08x, crc in data=0x%08x", ErrPatCrcMismatch, check, inData)
}

func NewErrPatProgramsFull(max int) error {
	return fmt.Errorf("%w. max=%d", ErrPatProgramsFull, max)
}

func NewErrPatDecodeFault(offset int) error {
	return fmt.Errorf("%w. first diff at=%d", ErrPatDecodeFault, offset)
}

func NewErrPatEncodeFault(offset int) error {
	return fmt.Errorf("%w. first diff at=%d", ErrPatEncodeFault, offset)
}

// ----- pkg/patmon ----------------------------------------------------------------------------------------------------

var (
	ErrPatmonNoPat        = errors.New("tspat.patmon: no complete pat found")
	ErrPatmonAstitsDiffer = errors.New("tspat.patmon: astits pat differs")
)

// ----- app -----------------------------------------------------------------------------------------------------------

var ErrPcapNoPayload = errors.New("tspat.app: pcap packet without ts payload")
