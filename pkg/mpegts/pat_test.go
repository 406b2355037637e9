// Copyright 2023, Chef.  All rights reserved.
// https://github.com/q191201771/tspat
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

package mpegts_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/q191201771/naza/pkg/assert"
	"github.com/q191201771/tspat/pkg/base"
	"github.com/q191201771/tspat/pkg/mpegts"
)

func TestPat_Push_Ffmpeg(t *testing.T) {
	pat := mpegts.NewPat()
	pat, state, err := pat.Push(ffmpegPatPacket)
	assert.Equal(t, nil, err)
	assert.Equal(t, mpegts.PatStateComplete, state)
	assert.Equal(t, true, pat.IsComplete())
	assert.Equal(t, [][2]uint16{{1, 0x1000}}, programPairs(pat))
	assert.Equal(t, uint8(0x7), pat.Programs()[0].Reserved())
	assert.Equal(t, uint16(1), pat.TransportStreamId())
	assert.Equal(t, uint8(0), pat.VersionNumber())
	assert.Equal(t, uint8(1), pat.CurrentNextIndicator())
	assert.Equal(t, uint32(0xB204B12A), pat.Crc())
	assert.Equal(t, 1, pat.NumPackets())
	assert.Equal(t, ffmpegPatPacket, pat.PacketBytes())
	assert.Equal(t, true, pat.SearchPid(0x1000))
	assert.Equal(t, false, pat.SearchPid(0x1001))
	_, ok := pat.NitPid()
	assert.Equal(t, false, ok)
}

func TestPat_Push_WithNit(t *testing.T) {
	packets := buildPatPackets(1, 0, 1, [][2]uint16{{0, 0x10}, {1, 0x20}})
	assert.Equal(t, mpegts.TsPacketSize, len(packets))

	pat, state, err := pushAll(mpegts.NewPat(), packets)
	assert.Equal(t, nil, err)
	assert.Equal(t, mpegts.PatStateComplete, state)
	assert.Equal(t, true, pat.IsComplete())
	assert.Equal(t, [][2]uint16{{0, 0x10}, {1, 0x20}}, programPairs(pat))
	assert.Equal(t, true, pat.Programs()[0].IsNit())
	nit, ok := pat.NitPid()
	assert.Equal(t, true, ok)
	assert.Equal(t, uint16(0x10), nit)

	s := pat.DumpString()
	assert.Equal(t, true, strings.Contains(s, "num_programs: 2"))
	assert.Equal(t, true, strings.Contains(s, "[01/02]: Program No 0x0000 (    0) -> PID 0010 (16) /res: 0x07/"))
	assert.Equal(t, true, strings.Contains(s, "- NIT PID 0010 (16)"))
	assert.Equal(t, true, strings.Contains(s, "[02/02]: Program No 0x0001 (    1) -> PID 0020 (32) /res: 0x07/"))
	assert.Equal(t, 1, strings.Count(s, "NIT PID"))

	r := pat.Dump()
	assert.Equal(t, nil, r.DecodeErr)
	assert.Equal(t, nil, r.EncodeErr)
}

func TestPat_Push_CrcMismatch(t *testing.T) {
	packets := buildPatPackets(1, 0, 1, [][2]uint16{{0, 0x10}, {1, 0x20}})
	// section从第5字节开始，长度3+17
	packets[5+20-1] ^= 0x01

	log := newRecordLogger()
	pat := mpegts.NewPat(func(option *mpegts.PatOption) {
		option.Log = log
		option.ProgramsMax = 1
	})
	newPat, state, err := pat.Push(packets)
	assert.Equal(t, true, errors.Is(err, base.ErrPatCrcMismatch))
	assert.Equal(t, mpegts.PatStateReset, state)
	assert.Equal(t, false, newPat == pat)
	assert.Equal(t, false, newPat.IsComplete())
	assert.Equal(t, 0, newPat.NumPrograms())
	assert.Equal(t, 0, newPat.NumPackets())
	assert.Equal(t, mpegts.TsPacketHeader{}, newPat.TsHeader())
	assert.Equal(t, mpegts.SectionHeader{}, newPat.SectionHeader())
	// 2个program超过了容量1，加上crc错误
	assert.Equal(t, 2, len(log.warns))

	// 新表沿用之前的配置
	newPat, state, err = newPat.Push(buildPatPackets(1, 0, 1, [][2]uint16{{0, 0x10}, {1, 0x20}}))
	assert.Equal(t, nil, err)
	assert.Equal(t, mpegts.PatStateComplete, state)
	assert.Equal(t, [][2]uint16{{0, 0x10}}, programPairs(newPat))
	assert.Equal(t, 3, len(log.warns))
}

func TestPat_Push_IgnorePid(t *testing.T) {
	packets := buildPatPackets(1, 0, 1, [][2]uint16{{1, 0x20}})
	packets[1] = 0x41
	packets[2] = 0x00

	pat := mpegts.NewPat()
	ret, state, err := pat.Push(packets)
	assert.Equal(t, nil, err)
	assert.Equal(t, true, ret == pat)
	assert.Equal(t, mpegts.PatStateAssembling, state)
	assert.Equal(t, mpegts.TsPacketHeader{}, pat.TsHeader())
	assert.Equal(t, mpegts.SectionHeader{}, pat.SectionHeader())
	assert.Equal(t, 0, pat.NumPackets())

	// 非法的ts packet同样忽略
	ret, state, err = pat.Push(packets[:10])
	assert.Equal(t, nil, err)
	assert.Equal(t, true, ret == pat)
	assert.Equal(t, mpegts.PatStateAssembling, state)
	assert.Equal(t, 0, pat.NumPackets())
}

func TestPat_Push_InvalidSectionStart(t *testing.T) {
	pat := mpegts.NewPat()

	section := buildPatSection(1, 0, 1, [][2]uint16{{1, 0x20}})
	section[0] = mpegts.TsPsiIdPms
	ret, state, err := pat.Push(buildTsPackets(section, 0))
	assert.Equal(t, true, errors.Is(err, base.ErrPatTableId))
	assert.Equal(t, true, ret == pat)
	assert.Equal(t, mpegts.PatStateAssembling, state)
	assert.Equal(t, mpegts.TsPacketHeader{}, pat.TsHeader())
	assert.Equal(t, 0, pat.NumPackets())

	section = buildPatSection(1, 0, 1, [][2]uint16{{1, 0x20}})
	section[1] &^= 0x80
	_, state, err = pat.Push(buildTsPackets(section, 1))
	assert.Equal(t, true, errors.Is(err, base.ErrSectionHeader))
	assert.Equal(t, mpegts.PatStateAssembling, state)
	assert.Equal(t, mpegts.TsPacketHeader{}, pat.TsHeader())

	// 之后的合法section正常处理
	pat, state, err = pushAll(pat, buildPatPackets(1, 0, 1, [][2]uint16{{1, 0x20}}))
	assert.Equal(t, nil, err)
	assert.Equal(t, mpegts.PatStateComplete, state)
	assert.Equal(t, [][2]uint16{{1, 0x20}}, programPairs(pat))
}

func TestPat_Push_MultiPacket(t *testing.T) {
	programs := makePrograms(100)
	packets := buildPatPackets(7, 3, 1, programs)
	assert.Equal(t, 3*mpegts.TsPacketSize, len(packets))

	pat := mpegts.NewPat()
	var state mpegts.PatState
	var err error
	for i := 0; i < 3; i++ {
		pat, state, err = pat.Push(packets[i*mpegts.TsPacketSize : (i+1)*mpegts.TsPacketSize])
		assert.Equal(t, nil, err)
		if i < 2 {
			assert.Equal(t, mpegts.PatStateAssembling, state)
			assert.Equal(t, false, pat.IsComplete())
		}
	}
	assert.Equal(t, mpegts.PatStateComplete, state)
	assert.Equal(t, programs, programPairs(pat))
	assert.Equal(t, uint16(7), pat.TransportStreamId())
	assert.Equal(t, uint8(3), pat.VersionNumber())
	assert.Equal(t, 3, pat.NumPackets())
	assert.Equal(t, packets, pat.PacketBytes())

	// 起始packet的header被固定住
	assert.Equal(t, uint8(1), pat.TsHeader().PayloadUnitStart)
	assert.Equal(t, uint8(0), pat.TsHeader().Cc)

	generated, n := pat.Generate()
	assert.Equal(t, 3, n)
	assert.Equal(t, packets, generated)

	r := pat.CheckGenerator()
	assert.Equal(t, nil, r.DecodeErr)
	assert.Equal(t, nil, r.EncodeErr)
}

func TestPat_Push_Capacity(t *testing.T) {
	log := newRecordLogger()
	pat := mpegts.NewPat(func(option *mpegts.PatOption) {
		option.Log = log
		option.ProgramsMax = 4
	})
	programs := makePrograms(10)
	pat, state, err := pushAll(pat, buildPatPackets(1, 0, 1, programs))
	assert.Equal(t, nil, err)
	assert.Equal(t, mpegts.PatStateComplete, state)
	assert.Equal(t, 4, pat.NumPrograms())
	assert.Equal(t, programs[:4], programPairs(pat))
	assert.Equal(t, 1, len(log.warns))
	assert.Equal(t, true, strings.Contains(log.warns[0], "too many programs (>4)"))

	// 默认容量
	pat, _, _ = pushAll(mpegts.NewPat(), buildPatPackets(1, 0, 1, makePrograms(200)))
	assert.Equal(t, true, pat.IsComplete())
	assert.Equal(t, mpegts.PatProgramsMaxDefault, pat.NumPrograms())
}

func TestPat_Push_FrozenAfterComplete(t *testing.T) {
	first := buildPatPackets(1, 0, 1, [][2]uint16{{1, 0x20}})
	pat, state, err := pushAll(mpegts.NewPat(), first)
	assert.Equal(t, nil, err)
	assert.Equal(t, mpegts.PatStateComplete, state)
	crc := pat.Crc()

	ret, state, err := pushAll(pat, buildPatPackets(1, 1, 1, [][2]uint16{{1, 0x30}, {2, 0x40}}))
	assert.Equal(t, nil, err)
	assert.Equal(t, true, ret == pat)
	assert.Equal(t, mpegts.PatStateComplete, state)
	assert.Equal(t, [][2]uint16{{1, 0x20}}, programPairs(pat))
	assert.Equal(t, crc, pat.Crc())
	assert.Equal(t, first, pat.PacketBytes())

	// 完整之后，非法的起始packet依然会清除固定的header
	section := buildPatSection(1, 0, 1, [][2]uint16{{1, 0x20}})
	section[0] = mpegts.TsPsiIdCas
	_, state, err = pat.Push(buildTsPackets(section, 2))
	assert.Equal(t, true, errors.Is(err, base.ErrPatTableId))
	assert.Equal(t, mpegts.PatStateComplete, state)
	assert.Equal(t, mpegts.TsPacketHeader{}, pat.TsHeader())
}

func TestPat_Push_PointerField(t *testing.T) {
	section := buildPatSection(1, 0, 1, [][2]uint16{{0, 0x10}, {1, 0x20}})
	packet := make([]byte, mpegts.TsPacketSize)
	for i := range packet {
		packet[i] = 0xFF
	}
	copy(packet, []byte{0x47, 0x40, 0x00, 0x10, 0x03})
	copy(packet[8:], section)

	pat, state, err := pat0().Push(packet)
	assert.Equal(t, nil, err)
	assert.Equal(t, mpegts.PatStateComplete, state)
	assert.Equal(t, uint8(3), pat.SectionHeader().PointerField)
	assert.Equal(t, [][2]uint16{{0, 0x10}, {1, 0x20}}, programPairs(pat))

	r := pat.CheckGenerator()
	assert.Equal(t, nil, r.DecodeErr)
	assert.Equal(t, nil, r.EncodeErr)
}

func TestPat_CheckGenerator_EncodeFault(t *testing.T) {
	// 起始packet带adaptation_field，重新生成时不会带
	section := buildPatSection(1, 0, 1, [][2]uint16{{1, 0x20}})
	packet := make([]byte, mpegts.TsPacketSize)
	for i := range packet {
		packet[i] = 0xFF
	}
	copy(packet, []byte{0x47, 0x40, 0x00, 0x30, 0x01, 0x00, 0x00})
	copy(packet[7:], section)

	pat, state, err := pat0().Push(packet)
	assert.Equal(t, nil, err)
	assert.Equal(t, mpegts.PatStateComplete, state)
	assert.Equal(t, [][2]uint16{{1, 0x20}}, programPairs(pat))

	r := pat.CheckGenerator()
	assert.Equal(t, nil, r.DecodeErr)
	assert.Equal(t, true, errors.Is(r.EncodeErr, base.ErrPatEncodeFault))
	assert.IsNotNil(t, r.Err())

	// 用生成的数据替换后，自检通过
	pat.RegeneratePackets()
	r = pat.CheckGenerator()
	assert.Equal(t, nil, r.DecodeErr)
	assert.Equal(t, nil, r.EncodeErr)
}

func TestPat_CheckGenerator_NotComplete(t *testing.T) {
	r := mpegts.NewPat().CheckGenerator()
	assert.Equal(t, true, errors.Is(r.DecodeErr, base.ErrPatNotComplete))
	assert.Equal(t, true, errors.Is(r.EncodeErr, base.ErrPatNotComplete))
}

func TestPat_Copy(t *testing.T) {
	programs := makePrograms(60)
	pat, _, _ := pushAll(mpegts.NewPat(), buildPatPackets(1, 0, 1, programs))
	assert.Equal(t, true, pat.IsComplete())

	pat1 := pat.Copy()
	assert.IsNotNil(t, pat1)
	assert.Equal(t, false, pat1 == pat)
	assert.Equal(t, programs, programPairs(pat1))
	assert.Equal(t, pat.Crc(), pat1.Crc())
	assert.Equal(t, pat.PacketBytes(), pat1.PacketBytes())
	assert.Equal(t, true, mpegts.PatIsSame(pat, pat1))

	assert.Equal(t, true, mpegts.NewPat().Copy() == nil)
}

func TestPat_Generate_FromScratch(t *testing.T) {
	pat := mpegts.NewPat()
	pat.InitSection(1, 0, 1)
	assert.Equal(t, nil, pat.AddProgram(1, 0x1000))

	packets, n := pat.Generate()
	assert.Equal(t, 1, n)
	assert.Equal(t, ffmpegPatPacket, packets)
	assert.Equal(t, uint32(0xB204B12A), pat.Crc())

	// 生成的数据可以被重新解析
	pat1, state, err := mpegts.NewPat().Push(packets)
	assert.Equal(t, nil, err)
	assert.Equal(t, mpegts.PatStateComplete, state)
	assert.Equal(t, pat.Crc(), pat1.Crc())
	assert.Equal(t, [][2]uint16{{1, 0x1000}}, programPairs(pat1))

	full := mpegts.NewPat(func(option *mpegts.PatOption) {
		option.ProgramsMax = 1
	})
	assert.Equal(t, nil, full.AddProgram(1, 0x1000))
	assert.Equal(t, true, errors.Is(full.AddProgram(2, 0x1001), base.ErrPatProgramsFull))
	assert.Equal(t, 1, full.NumPrograms())
}

func TestPat_Dispose(t *testing.T) {
	pat, _, _ := pat0().Push(ffmpegPatPacket)
	assert.Equal(t, true, pat.IsComplete())
	pat.Dispose()
	assert.Equal(t, false, pat.IsComplete())
	assert.Equal(t, 0, pat.NumPrograms())
	assert.Equal(t, 0, pat.NumPackets())
	assert.Equal(t, uint32(0), pat.Crc())
}

func TestPatProgram(t *testing.T) {
	p := mpegts.NewPatProgram(0xABCD, 0xFF, 0xFFFF)
	assert.Equal(t, uint16(0xABCD), p.ProgramNumber())
	assert.Equal(t, uint8(0x7), p.Reserved())
	assert.Equal(t, uint16(0x1FFF), p.Pid())
	assert.Equal(t, mpegts.PatProgram{0xAB, 0xCD, 0xFF, 0xFF}, p)

	p = mpegts.NewPatProgram(0, 0x2, 0x0010)
	assert.Equal(t, true, p.IsNit())
	assert.Equal(t, uint8(0x2), p.Reserved())
	assert.Equal(t, uint16(0x10), p.Pid())
	assert.Equal(t, mpegts.PatProgram{0x00, 0x00, 0x40, 0x10}, p)
}

func TestPatIsSame(t *testing.T) {
	build := func(version uint8, currentNext uint8, programs [][2]uint16) *mpegts.Pat {
		pat, _, err := pushAll(mpegts.NewPat(), buildPatPackets(1, version, currentNext, programs))
		assert.Equal(t, nil, err)
		assert.Equal(t, true, pat.IsComplete())
		return pat
	}

	p1 := [][2]uint16{{1, 0x20}, {2, 0x30}}
	p2 := [][2]uint16{{1, 0x20}, {2, 0x31}}
	p3 := [][2]uint16{{2, 0x30}, {1, 0x20}}
	p4 := [][2]uint16{{1, 0x20}}

	assert.Equal(t, true, mpegts.PatIsSame(build(0, 1, p1), build(0, 1, p1)))
	assert.Equal(t, false, mpegts.PatIsSame(build(0, 1, p1), build(0, 1, p2)))
	assert.Equal(t, false, mpegts.PatIsSame(build(0, 1, p1), build(0, 1, p3)))
	assert.Equal(t, false, mpegts.PatIsSame(build(0, 1, p1), build(0, 1, p4)))

	// a不是当前生效的版本
	assert.Equal(t, true, mpegts.PatIsSame(build(0, 0, p1), build(0, 1, p2)))
	// b的version_number不为0
	assert.Equal(t, true, mpegts.PatIsSame(build(0, 1, p1), build(1, 1, p2)))
	// version_number不同
	assert.Equal(t, false, mpegts.PatIsSame(build(2, 1, p1), build(0, 1, p1)))
}

func pat0() *mpegts.Pat {
	return mpegts.NewPat()
}
