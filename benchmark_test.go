package partedfs

import (
	"fmt"
	"testing"
	"time"

	"github.com/spf13/afero"
)

// benchPayload is shared across write benchmarks
var benchPayload = payload(1 << 16)

// BenchmarkStatWithoutCache benchmarks metadata aggregation with discovery on
// every call
func BenchmarkStatWithoutCache(b *testing.B) {
	backend := afero.NewMemMapFs()
	pfs, err := New(backend, 4096)
	if err != nil {
		b.Fatal(err)
	}

	if err := afero.WriteFile(pfs, "/f.bin", benchPayload, 0644); err != nil {
		b.Fatal(err)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := pfs.Stat("/f.bin"); err != nil {
			b.Fatal(err)
		}
	}
}

// BenchmarkStatWithCache benchmarks metadata aggregation with part-set caching
func BenchmarkStatWithCache(b *testing.B) {
	backend := afero.NewMemMapFs()
	pfs, err := New(backend, 4096, WithPartCache(true, 5*time.Minute))
	if err != nil {
		b.Fatal(err)
	}

	if err := afero.WriteFile(pfs, "/f.bin", benchPayload, 0644); err != nil {
		b.Fatal(err)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := pfs.Stat("/f.bin"); err != nil {
			b.Fatal(err)
		}
	}
}

// BenchmarkNegativeLookupWithCache benchmarks non-existent file lookups with
// the negative cache
func BenchmarkNegativeLookupWithCache(b *testing.B) {
	backend := afero.NewMemMapFs()
	pfs, err := New(backend, 4096, WithPartCache(true, 5*time.Minute))
	if err != nil {
		b.Fatal(err)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := pfs.Stat("/nonexistent.bin"); err == nil {
			b.Fatal("expected error for nonexistent file")
		}
	}
}

// BenchmarkWrite measures write throughput across part sizes
func BenchmarkWrite(b *testing.B) {
	for _, partSize := range []int64{1 << 10, 1 << 14, 1 << 20} {
		b.Run(fmt.Sprintf("part%d", partSize), func(b *testing.B) {
			backend := afero.NewMemMapFs()
			pfs, err := New(backend, partSize)
			if err != nil {
				b.Fatal(err)
			}

			b.SetBytes(int64(len(benchPayload)))
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				if err := afero.WriteFile(pfs, "/f.bin", benchPayload, 0644); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

// BenchmarkRead measures read throughput across part sizes
func BenchmarkRead(b *testing.B) {
	for _, partSize := range []int64{1 << 10, 1 << 14, 1 << 20} {
		b.Run(fmt.Sprintf("part%d", partSize), func(b *testing.B) {
			backend := afero.NewMemMapFs()
			pfs, err := New(backend, partSize)
			if err != nil {
				b.Fatal(err)
			}
			if err := afero.WriteFile(pfs, "/f.bin", benchPayload, 0644); err != nil {
				b.Fatal(err)
			}

			b.SetBytes(int64(len(benchPayload)))
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				if _, err := afero.ReadFile(pfs, "/f.bin"); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}
