package audio

// View maps channel index to a writable slice of host memory for the
// duration of one callback.
//
// The channel table is allocated once by Resize on the control thread. Bind
// and Unbind only re-slice, so a View costs nothing on the realtime thread.
// An engine must not keep a View or any of its slices after ProcessBlock
// returns; the bridge unbinds it when the call ends.
type View struct {
	channels   [][]float32
	numSamples int
}

// NewView returns a view with room for numChannels channels.
func NewView(numChannels int) *View {
	v := &View{}
	v.Resize(numChannels)
	return v
}

// Resize reallocates the channel table. Call it from the control thread only.
func (v *View) Resize(numChannels int) {
	if numChannels < 0 {
		numChannels = 0
	}
	v.channels = make([][]float32, numChannels)
	v.numSamples = 0
}

// Bind points the view at the first numSamples samples of each of buf's
// channels. The caller has already checked that buf has exactly as many
// channels as the view and at least numSamples samples in each.
func (v *View) Bind(buf *Buffer, numSamples int) {
	for ch := range v.channels {
		v.channels[ch] = buf.channels[ch][:numSamples:numSamples]
	}
	v.numSamples = numSamples
}

// Unbind drops every reference to host memory.
func (v *View) Unbind() {
	clear(v.channels)
	v.numSamples = 0
}

// NumChannels returns the number of channels in the view.
func (v *View) NumChannels() int {
	return len(v.channels)
}

// NumSamples returns the number of samples in each channel.
func (v *View) NumSamples() int {
	return v.numSamples
}

// Channel returns the samples of one channel, or nil if index is out of range.
func (v *View) Channel(index int) []float32 {
	if index < 0 || index >= len(v.channels) {
		return nil
	}
	return v.channels[index]
}

// Channels returns the channel table. The slices are only valid during the
// current call.
func (v *View) Channels() [][]float32 {
	return v.channels
}

// Clear zeros all bound samples.
func (v *View) Clear() {
	for _, ch := range v.channels {
		clear(ch)
	}
}
