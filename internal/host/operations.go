package host

import (
	"context"
	"fmt"

	"github.com/vietddude/markerbridge/internal/core/domain"
	"github.com/vietddude/markerbridge/internal/hostrpc"
)

// SessionInfo fetches the open session's name, sample rate and timecode
// rate, caching the snapshot until disconnect invalidates it.
func (m *Manager) SessionInfo(ctx context.Context) (*domain.Session, error) {
	m.mu.Lock()
	if m.session != nil {
		s := *m.session
		m.mu.Unlock()
		return &s, nil
	}
	if m.state != StateConnected {
		m.mu.Unlock()
		return nil, ErrNotConnected
	}
	m.mu.Unlock()

	resp, err := m.send(ctx, hostrpc.CmdGetSessionName, nil)
	if err != nil {
		return nil, fmt.Errorf("get session name: %w", err)
	}
	var name hostrpc.GetSessionNameResponse
	if err := resp.DecodeBody(&name); err != nil {
		return nil, err
	}

	resp, err = m.send(ctx, hostrpc.CmdGetSampleRate, nil)
	if err != nil {
		return nil, fmt.Errorf("get sample rate: %w", err)
	}
	var sr hostrpc.GetSampleRateResponse
	if err := resp.DecodeBody(&sr); err != nil {
		return nil, err
	}

	resp, err = m.send(ctx, hostrpc.CmdGetTimecodeRate, nil)
	if err != nil {
		return nil, fmt.Errorf("get timecode rate: %w", err)
	}
	var tr hostrpc.GetTimecodeRateResponse
	if err := resp.DecodeBody(&tr); err != nil {
		return nil, err
	}

	session := &domain.Session{
		Name:       name.Name,
		SampleRate: sr.SampleRate,
		TimecodeRate: domain.TimecodeRate{
			FPS:       tr.FPS,
			DropFrame: tr.DropFrame,
		},
	}

	m.mu.Lock()
	m.session = session
	m.mu.Unlock()

	s := *session
	return &s, nil
}

// TrackList fetches the session's tracks.
func (m *Manager) TrackList(ctx context.Context) ([]hostrpc.Track, error) {
	if m.State() != StateConnected {
		return nil, ErrNotConnected
	}

	resp, err := m.send(ctx, hostrpc.CmdGetTrackList, nil)
	if err != nil {
		return nil, fmt.Errorf("get track list: %w", err)
	}
	var body hostrpc.GetTrackListResponse
	if err := resp.DecodeBody(&body); err != nil {
		return nil, err
	}
	return body.Tracks, nil
}

// MemoryLocations fetches existing markers, optionally filtered.
func (m *Manager) MemoryLocations(ctx context.Context, filter string) ([]domain.ExistingMarker, error) {
	if m.State() != StateConnected {
		return nil, ErrNotConnected
	}

	var reqBody any
	if filter != "" {
		reqBody = hostrpc.GetMemoryLocationsRequest{Filter: filter}
	}
	resp, err := m.send(ctx, hostrpc.CmdGetMemoryLocations, reqBody)
	if err != nil {
		return nil, fmt.Errorf("get memory locations: %w", err)
	}
	var body hostrpc.GetMemoryLocationsResponse
	if err := resp.DecodeBody(&body); err != nil {
		return nil, err
	}

	markers := make([]domain.ExistingMarker, 0, len(body.Locations))
	for _, loc := range body.Locations {
		markers = append(markers, domain.ExistingMarker{
			Name:     loc.Name,
			Start:    loc.StartTime,
			ColorIdx: loc.ColorIndex,
		})
	}
	return markers, nil
}

// CreateMemoryLocation creates one marker and returns the host-assigned
// location number.
func (m *Manager) CreateMemoryLocation(ctx context.Context, req hostrpc.CreateMemoryLocationRequest) (int, error) {
	if m.State() != StateConnected {
		return 0, ErrNotConnected
	}

	resp, err := m.send(ctx, hostrpc.CmdCreateMemoryLocation, req)
	if err != nil {
		return 0, fmt.Errorf("create memory location %q: %w", req.Name, err)
	}

	// Some host builds reply with an empty body on success.
	if len(resp.Body) == 0 {
		return 0, nil
	}
	var body hostrpc.CreateMemoryLocationResponse
	if err := resp.DecodeBody(&body); err != nil {
		return 0, err
	}
	return body.Number, nil
}
