// Copyright 2023, Chef.  All rights reserved.
// https://github.com/q191201771/tspat
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

package innertest

import (
	"bytes"
	"context"
	"testing"

	"github.com/asticode/go-astits"
	"github.com/q191201771/naza/pkg/assert"
	"github.com/q191201771/naza/pkg/nazaatomic"
	"github.com/q191201771/naza/pkg/nazalog"
	"github.com/q191201771/naza/pkg/nazamd5"
	"github.com/q191201771/tspat/pkg/mpegts"
	"github.com/q191201771/tspat/pkg/patmon"
)

// 使用astits的muxer生成一段带PAT、PMT的TS流
// 按不对齐的块输入 patmon.Monitor，拿到PAT
// 对拿到的PAT做Copy，重新生成packet，并用astits的demuxer重新解析对比
// 再用自己的编码器生成一个新版本的PAT追加到流后面，检查版本变化能被识别

var (
	tt *testing.T

	esPid     uint16 = 0x100
	chunkSize        = 61

	patCount nazaatomic.Uint32
)

func Entry(t *testing.T) {
	tt = t

	stream := muxWithAstits()
	assert.Equal(t, true, len(stream) >= 2*mpegts.TsPacketSize)
	assert.Equal(t, 0, len(stream)%mpegts.TsPacketSize)

	astitsPrograms, err := patmon.DemuxPatWithAstits(stream)
	assert.Equal(t, nil, err)
	assert.Equal(t, 1, len(astitsPrograms))

	var first *mpegts.Pat
	m := patmon.NewMonitor(func(option *patmon.MonitorOption) {
		option.CheckGenerator = true
		option.VerifyWithAstits = true
	}).WithOnPat(func(pat *mpegts.Pat) {
		patCount.Increment()
		if first == nil {
			first = pat.Copy()
		}
	})

	feedInChunks(m, stream)
	assert.Equal(t, uint32(1), patCount.Load())
	assert.IsNotNil(t, first)
	assert.Equal(t, true, first.IsComplete())
	assert.Equal(t, astitsPrograms[0].ProgramNumber, first.Programs()[0].ProgramNumber())
	assert.Equal(t, astitsPrograms[0].ProgramMapID, first.Programs()[0].Pid())
	assert.Equal(t, nazamd5.Md5(m.Pat().PacketBytes()), nazamd5.Md5(first.PacketBytes()))
	assert.Equal(t, nil, patmon.VerifyWithAstits(first))

	// 用自己的编码器重新生成packet，astits依然能解析出相同的program
	first.RegeneratePackets()
	assert.Equal(t, nil, patmon.VerifyWithAstits(first))

	// 新版本，多一个program
	next := mpegts.NewPat()
	next.InitSection(first.TransportStreamId(), (first.VersionNumber()+1)%32, 1)
	for _, p := range first.Programs() {
		assert.Equal(t, nil, next.AddProgram(p.ProgramNumber(), p.Pid()))
	}
	assert.Equal(t, nil, next.AddProgram(first.Programs()[0].ProgramNumber()+1, first.Programs()[0].Pid()+1))
	packets, numPackets := next.Generate()
	assert.Equal(t, 1, numPackets)

	feedInChunks(m, packets)
	assert.Equal(t, uint32(2), patCount.Load())
	assert.Equal(t, 2, m.Pat().NumPrograms())
	assert.Equal(t, true, m.Pat().SearchPid(first.Programs()[0].Pid()+1))

	stat := m.Stat()
	assert.Equal(t, uint64(1), stat.Changes)
	assert.Equal(t, uint64(0), stat.Resets)
	assert.Equal(t, uint64(0), stat.AstitsFaults)
	assert.Equal(t, nil, m.Pat().CheckGenerator().Err())
	nazalog.Debugf("innertest stat. %+v", stat)

	first.Dispose()
	next.Dispose()
	m.Dispose()
}

func muxWithAstits() []byte {
	var buf bytes.Buffer
	mx := astits.NewMuxer(context.Background(), &buf)
	err := mx.AddElementaryStream(astits.PMTElementaryStream{
		ElementaryPID: esPid,
		StreamType:    astits.StreamTypeH264Video,
	})
	assert.Equal(tt, nil, err)
	mx.SetPCRPID(esPid)

	_, err = mx.WriteTables()
	assert.Equal(tt, nil, err)
	return buf.Bytes()
}

func feedInChunks(m *patmon.Monitor, b []byte) {
	for len(b) > 0 {
		n := chunkSize
		if n > len(b) {
			n = len(b)
		}
		m.Feed(b[:n])
		b = b[n:]
	}
}
