package handler

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"parithera-api/internal/domain/entity"
)

func TestClassifyFileType(t *testing.T) {
	cases := []struct {
		name string
		want entity.SampleFileType
	}{
		{"sample_R1.fastq", entity.SampleFileTypeFastq},
		{"sample_R2.fastq.gz", entity.SampleFileTypeFastq},
		{"reads.fq", entity.SampleFileTypeFastq},
		{"READS.FQ.GZ", entity.SampleFileTypeFastq},
		{"matrix.h5ad", entity.SampleFileTypeMatrix},
		{"counts.mtx", entity.SampleFileTypeMatrix},
		{"counts.mtx.gz", entity.SampleFileTypeMatrix},
		{"filtered_feature_bc_matrix.h5", entity.SampleFileTypeMatrix},
		{"notes.txt", entity.SampleFileTypeFastq},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.want, classifyFileType(tc.name), tc.name)
	}
}
