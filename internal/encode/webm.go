package encode

// WebMMuxer packages Opus frames into a WebM (Matroska) container: one init
// segment (EBML header + Segment(unknown size) + Info + Tracks) emitted
// once, then one Cluster per chunk (spec.md §4.5 "Encoder").
type WebMMuxer struct {
	sampleRate     int
	channels       int
	trackNumber    uint64
	nextTimecodeMs uint64
	frameDurMs     uint64
}

const webmTrackNumber = 1

// NewWebMMuxer builds a muxer for a single Opus audio track.
func NewWebMMuxer(sampleRate, channels int) *WebMMuxer {
	return &WebMMuxer{
		sampleRate:  sampleRate,
		channels:    channels,
		trackNumber: webmTrackNumber,
		frameDurMs:  20, // opusFrameSamples / (sampleRate/1000)
	}
}

// InitSegment returns the EBML header plus an open (unknown-size) Segment
// containing Info and Tracks. Emit this exactly once, as a prefix to the
// first chunk's bytes (spec.md §4.5: "The first emitted chunk MUST contain
// the WebM initialization segment").
func (m *WebMMuxer) InitSegment() []byte {
	header := element(idEBML, 4, concat(
		uintElement(idEBMLVersion, 2, 1),
		uintElement(idEBMLReadVersion, 2, 1),
		uintElement(idEBMLMaxIDLength, 2, 4),
		uintElement(idEBMLMaxSizeLength, 2, 8),
		stringElement(idDocType, 2, "webm"),
		uintElement(idDocTypeVersion, 2, 2),
		uintElement(idDocTypeReadVersion, 2, 2),
	))

	info := element(idInfo, 4, concat(
		uintElement(idTimecodeScale, 3, 1000000), // cluster/block timecodes in ms
		stringElement(idMuxingApp, 2, "masterstream"),
		stringElement(idWritingApp, 2, "masterstream"),
	))

	audio := element(idAudio, 1, concat(
		floatElement(idSamplingFrequency, 1, float64(m.sampleRate)),
		uintElement(idChannels, 1, uint64(m.channels)),
	))
	trackEntry := element(idTrackEntry, 1, concat(
		uintElement(idTrackNumber, 1, m.trackNumber),
		uintElement(idTrackUID, 2, m.trackNumber),
		uintElement(idTrackType, 1, 2), // 2 = audio
		stringElement(idCodecID, 1, "A_OPUS"),
		audio,
	))
	tracks := element(idTracks, 4, trackEntry)

	segmentBody := concat(info, tracks)
	segment := elementUnknownSize(idSegment, 4, segmentBody)

	return concat(header, segment)
}

// EncodeChunk wraps one chunk's Opus frames in a Cluster element, advancing
// the muxer's running timecode so successive chunks' clusters form a
// continuous timeline (spec.md §4.5 "Timestamps are continuous").
func (m *WebMMuxer) EncodeChunk(frames [][]byte) []byte {
	clusterTimecode := m.nextTimecodeMs
	body := uintElement(idTimecode, 1, clusterTimecode)

	for i, frame := range frames {
		relative := int16(i * int(m.frameDurMs))
		block := simpleBlock(m.trackNumber, relative, frame)
		body = append(body, element(idSimpleBlock, 1, block)...)
	}

	m.nextTimecodeMs = clusterTimecode + uint64(len(frames))*m.frameDurMs
	return element(idCluster, 4, body)
}

// simpleBlock builds a Matroska SimpleBlock payload: track number (vint),
// signed 16-bit relative timecode, flags byte, frame data.
func simpleBlock(trackNumber uint64, relativeTimecodeMs int16, frame []byte) []byte {
	out := encodeVint(trackNumber)
	out = append(out, byte(relativeTimecodeMs>>8), byte(relativeTimecodeMs))
	out = append(out, 0x80) // flags: keyframe
	out = append(out, frame...)
	return out
}

func concat(parts ...[]byte) []byte {
	var out []byte
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}
