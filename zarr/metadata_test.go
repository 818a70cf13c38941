package zarr

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/probonopd/LiberTEM/nd"
)

// https://zarr.readthedocs.io/en/stable/spec/v2.html#metadata
const specExample = `{
  "chunks": [
    1000,
    1000
  ],
	"compressor": {
			"id": "blosc",
			"cname": "lz4",
			"clevel": 5,
			"shuffle": 1
	},
	"dtype": "<f8",
	"fill_value": "NaN",
	"filters": [
			{"id": "delta", "dtype": "<f8", "astype": "<f4"}
	],
	"order": "C",
	"shape": [
			10000,
			10000
	],
	"zarr_format": 2
}`

const consolidatedExample = `{
  "metadata": {
    ".zgroup": {"zarr_format": 2},
    ".zattrs": {"title": "scan"},
    "frames/.zarray": {
      "chunks": [1, 4, 16, 16],
      "compressor": null,
      "dtype": "<u2",
      "fill_value": 0,
      "filters": null,
      "order": "C",
      "shape": [5, 5, 16, 16],
      "zarr_format": 2
    },
    "table/.zarray": {
      "chunks": [10],
      "compressor": {"id": "zstd", "level": 1},
      "dtype": [["x", "<f4"], ["y", "<f4"]],
      "fill_value": null,
      "filters": null,
      "order": "C",
      "shape": [100],
      "zarr_format": 2
    }
  },
  "zarr_consolidated_format": 1
}`

func TestMetadataSerialization(t *testing.T) {
	m := &ArrayMeta{}
	err := json.Unmarshal([]byte(specExample), m)
	if err != nil {
		t.Fatal(err)
	}
	if m.Compressor == nil || m.Compressor.Cname != "lz4" {
		t.Errorf("compressor not decoded: %#v", m.Compressor)
	}
	if !math.IsNaN(m.Fill()) {
		t.Errorf("expected NaN fill value, got %v", m.Fill())
	}
	if m.Dtype.Dtype != nd.Float64 {
		t.Errorf("dtype mismatch: %s", m.Dtype.Dtype)
	}
	// filters are not applied when reading
	if err := m.Validate(); err == nil {
		t.Error("expected validation error for filters")
	}
}

func TestConsolidatedMetadata(t *testing.T) {
	cm := &ConsolidatedMetadata{}
	if err := json.Unmarshal([]byte(consolidatedExample), cm); err != nil {
		t.Fatal(err)
	}
	if len(cm.Metadata) != 4 {
		t.Fatalf("expected 4 metadata entries, got %d", len(cm.Metadata))
	}

	arrays := cm.Arrays()
	frames, ok := arrays["frames"]
	if !ok {
		t.Fatalf("frames array missing: %v", arrays)
	}
	if err := frames.Validate(); err != nil {
		t.Fatal(err)
	}
	if frames.Compressor != nil {
		t.Errorf("expected null compressor")
	}

	table := arrays["table"]
	if table.Dtype.IsBasic() || len(table.Dtype.Children) != 2 {
		t.Errorf("expected structured dtype with two fields, got %#v", table.Dtype)
	}
	if table.Dtype.Human() != "struct" {
		t.Errorf("unexpected human name %q", table.Dtype.Human())
	}
	if err := table.Validate(); err == nil {
		t.Error("structured dtypes must not validate for reading")
	}
}

func TestConsolidatedMetadataRejectsBadKeys(t *testing.T) {
	cm := &ConsolidatedMetadata{}
	err := json.Unmarshal([]byte(`{"metadata": {"foo": {}}}`), cm)
	if err == nil {
		t.Fatal("expected error for unknown key")
	}
}

func TestStructuredTypeRoundTrip(t *testing.T) {
	var st StructuredType
	if err := json.Unmarshal([]byte(`["x", "<i4", [2]]`), &st); err != nil {
		t.Fatal(err)
	}
	if st.Fieldname != "x" || st.Dtype.ByteSize != 4 {
		t.Fatalf("unexpected field %#v", st)
	}
	d, err := json.Marshal(st)
	if err != nil {
		t.Fatal(err)
	}
	var back StructuredType
	if err := json.Unmarshal(d, &back); err != nil {
		t.Fatal(err)
	}
	if back.Fieldname != "x" || back.Dtype != st.Dtype {
		t.Errorf("round trip mismatch: %#v", back)
	}
}
