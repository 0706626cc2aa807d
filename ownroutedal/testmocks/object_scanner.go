package testmocks

import (
	"github.com/paulmach/osm"
)

type MockObjectScanner struct {
	ScanFunc   func() bool
	ObjectFunc func() osm.Object
	ErrFunc    func() error
	CloseFunc  func() error
}

func (s *MockObjectScanner) Scan() bool {
	return s.ScanFunc()
}

func (s *MockObjectScanner) Object() osm.Object {
	return s.ObjectFunc()
}

func (s *MockObjectScanner) Err() error {
	return s.ErrFunc()
}

func (s *MockObjectScanner) Close() error {
	return s.CloseFunc()
}

// NewMockObjectScannerFromObjects creates a scanner that yields the given objects in order
func NewMockObjectScannerFromObjects(objects ...osm.Object) *MockObjectScanner {
	index := -1
	return &MockObjectScanner{
		ScanFunc: func() bool {
			if index+1 >= len(objects) {
				return false
			}

			index++
			return true
		},
		ObjectFunc: func() osm.Object {
			return objects[index]
		},
		ErrFunc: func() error {
			return nil
		},
		CloseFunc: func() error {
			return nil
		},
	}
}
