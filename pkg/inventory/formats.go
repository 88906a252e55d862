package inventory

import "golang.org/x/exp/slices"

// Formats are the file_format values that classify the files of a digital object.
type Formats struct {
	Manifest           string   `toml:"manifest"`
	Assets             []string `toml:"assets"`
	OCRText            string   `toml:"ocrtext"`
	TranscriptionImage string   `toml:"transcriptionimage"`
	TranscriptionJSON  string   `toml:"transcriptionjson"`
	TranscriptionText  string   `toml:"transcriptiontext"`
}

func DefaultFormats() *Formats {
	return &Formats{
		Manifest:           "Extensible Markup Language",
		Assets:             []string{"JPEG 2000 JP2", "JPEG"},
		OCRText:            "Plain text",
		TranscriptionImage: "MSFT-PNG",
		TranscriptionJSON:  "MSFT-JSON",
		TranscriptionText:  "MSFT-TXT",
	}
}

// Structural lists the manifest format followed by the asset formats.
func (f *Formats) Structural() []string {
	return append([]string{f.Manifest}, f.Assets...)
}

func (f *Formats) IsAsset(format string) bool {
	return slices.Contains(f.Assets, format)
}

// Transcription lists the triad in content order: image, json, text.
func (f *Formats) Transcription() []string {
	return []string{f.TranscriptionImage, f.TranscriptionJSON, f.TranscriptionText}
}
