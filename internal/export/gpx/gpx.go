// Package gpx streams fixes as GPX 1.1 tracks.
package gpx

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/nerrad567/tracker-core/internal/tracking"
)

// ContentType is the media type of GPX documents.
const ContentType = "application/gpx+xml"

// DefaultCreator names the producing application when none is configured.
const DefaultCreator = "Tracker"

const (
	namespace      = "http://www.topografix.com/GPX/1/1"
	xsiNamespace   = "http://www.w3.org/2001/XMLSchema-instance"
	schemaLocation = "http://www.topografix.com/GPX/1/1 http://www.topografix.com/GPX/1/1/gpx.xsd"
	timeLayout     = "2006-01-02T15:04:05.000Z07:00"
	trackType      = "other"
)

// ErrNotStarted is returned when points are written before Begin.
var ErrNotStarted = errors.New("gpx: document not started")

// Filename returns the attachment name for a day's export.
func Filename(date string) string {
	return fmt.Sprintf("%s-tracker-export.gpx", date)
}

type trackPoint struct {
	XMLName xml.Name `xml:"trkpt"`
	Lat     float64  `xml:"lat,attr"`
	Lon     float64  `xml:"lon,attr"`
	Ele     float64  `xml:"ele"`
	Speed   float64  `xml:"speed"`
	Time    string   `xml:"time"`
}

// Writer emits one GPX document with a single track segment. Points are
// encoded as they are written so a day of fixes never sits in memory.
// A Writer is not safe for concurrent use.
type Writer struct {
	enc     *xml.Encoder
	creator string
	open    []xml.StartElement
	points  int
}

// NewWriter returns a Writer on w. An empty creator means DefaultCreator.
func NewWriter(w io.Writer, creator string) *Writer {
	if creator == "" {
		creator = DefaultCreator
	}
	return &Writer{enc: xml.NewEncoder(w), creator: creator}
}

// Begin writes the XML declaration, the metadata block and opens the track
// named "<creator> <date>". generated is recorded as the metadata time.
func (w *Writer) Begin(date string, generated time.Time) error {
	if len(w.open) > 0 {
		return errors.New("gpx: document already started")
	}

	if err := w.enc.EncodeToken(xml.ProcInst{Target: "xml", Inst: []byte(`version="1.0" encoding="UTF-8"`)}); err != nil {
		return err
	}
	root := xml.StartElement{
		Name: xml.Name{Local: "gpx"},
		Attr: []xml.Attr{
			{Name: xml.Name{Local: "version"}, Value: "1.1"},
			{Name: xml.Name{Local: "creator"}, Value: w.creator},
			{Name: xml.Name{Local: "xmlns"}, Value: namespace},
			{Name: xml.Name{Local: "xmlns:xsi"}, Value: xsiNamespace},
			{Name: xml.Name{Local: "xsi:schemaLocation"}, Value: schemaLocation},
		},
	}
	if err := w.start(root); err != nil {
		return err
	}

	if err := w.start(element("metadata")); err != nil {
		return err
	}
	if err := w.text("name", w.creator); err != nil {
		return err
	}
	if err := w.text("time", generated.UTC().Format(timeLayout)); err != nil {
		return err
	}
	if err := w.end(); err != nil {
		return err
	}

	if err := w.start(element("trk")); err != nil {
		return err
	}
	if err := w.text("name", w.creator+" "+date); err != nil {
		return err
	}
	if err := w.text("type", trackType); err != nil {
		return err
	}
	return w.start(element("trkseg"))
}

// WriteFixes appends fixes to the segment and flushes them to the
// underlying writer.
func (w *Writer) WriteFixes(fixes []tracking.Fix) error {
	if len(w.open) == 0 {
		return ErrNotStarted
	}
	for _, f := range fixes {
		pt := trackPoint{
			Lat:   f.Latitude,
			Lon:   f.Longitude,
			Ele:   f.Altitude,
			Speed: f.Speed,
			Time:  f.Time().Format(timeLayout),
		}
		if err := w.enc.Encode(pt); err != nil {
			return fmt.Errorf("encoding fix %d: %w", f.ID, err)
		}
		w.points++
	}
	return w.enc.Flush()
}

// Points returns the number of track points written.
func (w *Writer) Points() int {
	return w.points
}

// Close ends every open element. It is safe to call after a failed write so
// partial documents stay well-formed where the destination allows.
func (w *Writer) Close() error {
	for len(w.open) > 0 {
		if err := w.end(); err != nil {
			return err
		}
	}
	return w.enc.Flush()
}

func element(name string) xml.StartElement {
	return xml.StartElement{Name: xml.Name{Local: name}}
}

func (w *Writer) start(el xml.StartElement) error {
	if err := w.enc.EncodeToken(el); err != nil {
		return err
	}
	w.open = append(w.open, el)
	return nil
}

func (w *Writer) end() error {
	el := w.open[len(w.open)-1]
	w.open = w.open[:len(w.open)-1]
	return w.enc.EncodeToken(el.End())
}

func (w *Writer) text(name, value string) error {
	return w.enc.EncodeElement(value, element(name))
}
