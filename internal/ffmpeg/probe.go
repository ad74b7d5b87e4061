package ffmpeg

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

type ProbeResult struct {
	Width    int
	Height   int
	Duration float64
	HasVideo bool
	HasAudio bool
}

func ProbeArgs(path string) []string {
	return []string{
		"-v", "quiet",
		"-print_format", "json",
		"-show_format", "-show_streams",
		path,
	}
}

type probeOutput struct {
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
	Streams []probeStream `json:"streams"`
}

type probeStream struct {
	CodecType    string            `json:"codec_type"`
	Width        int               `json:"width"`
	Height       int               `json:"height"`
	Duration     string            `json:"duration"`
	Tags         map[string]string `json:"tags"`
	SideDataList []struct {
		Rotation float64 `json:"rotation"`
	} `json:"side_data_list"`
	Disposition struct {
		AttachedPic int `json:"attached_pic"`
	} `json:"disposition"`
}

// ParseProbe reads ffprobe JSON. Width and height are swapped for streams
// rotated by a quarter turn so they describe the displayed frame.
func ParseProbe(data []byte) (ProbeResult, error) {
	var raw probeOutput
	if err := json.Unmarshal(data, &raw); err != nil {
		return ProbeResult{}, fmt.Errorf("parse ffprobe JSON: %w", err)
	}

	var res ProbeResult
	for _, s := range raw.Streams {
		switch s.CodecType {
		case "video":
			if res.HasVideo || s.Disposition.AttachedPic == 1 {
				continue
			}
			res.HasVideo = true
			res.Width, res.Height = s.Width, s.Height
			if quarterTurn(s) {
				res.Width, res.Height = res.Height, res.Width
			}
			if d, err := strconv.ParseFloat(s.Duration, 64); err == nil {
				res.Duration = d
			}
		case "audio":
			res.HasAudio = true
		}
	}
	if d, err := strconv.ParseFloat(raw.Format.Duration, 64); err == nil && d > 0 {
		res.Duration = d
	}
	return res, nil
}

func quarterTurn(s probeStream) bool {
	rot := 0.0
	if v, ok := s.Tags["rotate"]; ok {
		rot, _ = strconv.ParseFloat(v, 64)
	}
	for _, sd := range s.SideDataList {
		if sd.Rotation != 0 {
			rot = sd.Rotation
		}
	}
	r := math.Mod(math.Abs(rot), 180)
	return r == 90
}
