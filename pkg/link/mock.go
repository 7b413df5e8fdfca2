package link

import (
	"io"
)

// MockPort implements Port for testing. Each Read hands out at most one of
// the queued chunks so tests control how the stream is split.
type MockPort struct {
	Chunks        [][]byte
	WrittenData   []byte
	ReadError     error
	WriteError    error
	CloseError    error
	Closed        bool
	EOF           bool
	ReadCallCount int
}

func (m *MockPort) Read(p []byte) (n int, err error) {
	m.ReadCallCount++
	if m.ReadError != nil {
		return 0, m.ReadError
	}

	if len(m.Chunks) == 0 {
		if m.EOF {
			return 0, io.EOF
		}
		return 0, nil
	}

	n = copy(p, m.Chunks[0])
	if n < len(m.Chunks[0]) {
		m.Chunks[0] = m.Chunks[0][n:]
	} else {
		m.Chunks = m.Chunks[1:]
	}
	return n, nil
}

func (m *MockPort) Write(p []byte) (n int, err error) {
	if m.WriteError != nil {
		return 0, m.WriteError
	}
	m.WrittenData = append(m.WrittenData, p...)
	return len(p), nil
}

func (m *MockPort) Close() error {
	m.Closed = true
	return m.CloseError
}
