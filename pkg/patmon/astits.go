// Copyright 2023, Chef.  All rights reserved.
// https://github.com/q191201771/tspat
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

package patmon

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/asticode/go-astits"
	"github.com/q191201771/naza/pkg/nazaerrors"
	"github.com/q191201771/tspat/pkg/base"
	"github.com/q191201771/tspat/pkg/mpegts"
)

// VerifyWithAstits 用astits解析pat持有的ts packet，对比program列表
//
// NIT条目不参与比较
//
func VerifyWithAstits(pat *mpegts.Pat) error {
	programs, err := DemuxPatWithAstits(pat.PacketBytes())
	if err != nil {
		return err
	}

	var mine []*astits.PATProgram
	for _, p := range pat.Programs() {
		if p.IsNit() {
			continue
		}
		mine = append(mine, &astits.PATProgram{ProgramNumber: p.ProgramNumber(), ProgramMapID: p.Pid()})
	}

	if len(mine) != len(programs) {
		return fmt.Errorf("%w. num programs=%d, astits=%d", base.ErrPatmonAstitsDiffer, len(mine), len(programs))
	}
	for i := range mine {
		if mine[i].ProgramNumber != programs[i].ProgramNumber || mine[i].ProgramMapID != programs[i].ProgramMapID {
			return fmt.Errorf("%w. index=%d, program=%d/%d, pid=%d/%d", base.ErrPatmonAstitsDiffer, i,
				mine[i].ProgramNumber, programs[i].ProgramNumber, mine[i].ProgramMapID, programs[i].ProgramMapID)
		}
	}
	return nil
}

// DemuxPatWithAstits 返回b中第一张PAT的program列表，不包含NIT条目
func DemuxPatWithAstits(b []byte) ([]*astits.PATProgram, error) {
	dmx := astits.NewDemuxer(context.Background(), bytes.NewReader(b), astits.DemuxerOptPacketSize(mpegts.TsPacketSize))
	for {
		d, err := dmx.NextData()
		if err != nil {
			if errors.Is(err, astits.ErrNoMorePackets) {
				return nil, fmt.Errorf("%w. pat not found", base.ErrPatmonAstitsDiffer)
			}
			return nil, nazaerrors.Wrap(err)
		}
		if d == nil || d.PAT == nil {
			continue
		}

		var ret []*astits.PATProgram
		for _, p := range d.PAT.Programs {
			if p.ProgramNumber == 0 {
				continue
			}
			ret = append(ret, p)
		}
		return ret, nil
	}
}
