package ffmpeg

// MuxArgs copies the video and audio streams into one faststart mp4 cut to
// exactly total seconds.
func MuxArgs(video, audio string, total float64, output string) []string {
	return []string{
		"-y",
		"-i", video,
		"-i", audio,
		"-map", "0:v:0",
		"-map", "1:a:0",
		"-c:v", "copy",
		"-c:a", "copy",
		"-t", sec(total),
		"-movflags", "+faststart",
		output,
	}
}
