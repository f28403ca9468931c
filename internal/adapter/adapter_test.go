package adapter

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inodb/vibe-genotype/internal/format"
	"github.com/inodb/vibe-genotype/internal/genotype"
	"github.com/inodb/vibe-genotype/internal/input"
)

const unk = genotype.Unknown

// rec builds an expected record; pos < 0 means unknown.
func rec(id, chrom string, pos int64, a1, a2 string) *genotype.Record {
	return &genotype.Record{ID: id, Chrom: chrom, Pos: pos, Allele1: a1, Allele2: a2}
}

func parseString(t *testing.T, kind format.Kind, content string) []*genotype.Record {
	t.Helper()
	p, err := New(kind, strings.NewReader(content))
	require.NoError(t, err)
	defer p.Close()
	records, err := genotype.Collect(p)
	require.NoError(t, err)
	return records
}

func parseFile(t *testing.T, name string) (format.Kind, []*genotype.Record) {
	t.Helper()
	src, err := input.NewSource(findTestFile(t, name))
	require.NoError(t, err)

	rc, err := src.Open()
	require.NoError(t, err)
	kind, err := format.DetectReader(rc)
	require.NoError(t, err)
	rc.Close()

	p, err := Open(kind, src)
	require.NoError(t, err)
	defer p.Close()

	records, err := genotype.Collect(p)
	require.NoError(t, err)
	return kind, records
}

func TestVCF_File(t *testing.T) {
	kind, records := parseFile(t, "sample.vcf")
	assert.Equal(t, format.VCF, kind)

	assert.Equal(t, []*genotype.Record{
		rec("rs4680", "22", 19951271, "G", "A"),
		rec("rs6265", "11", 27679916, "C", "C"),
		rec("rs1801133", "1", 11796321, "C", "A"),
		rec("rs999", "X", 100, "G", "G"),
		rec("rs555", "3", 200, unk, unk),
	}, records)
}

func TestVCF_HomozygousReference(t *testing.T) {
	refs := []string{"A", "C", "G", "T"}
	alts := []string{"C", "G", "T", "A"}
	for i, ref := range refs {
		for _, gt := range []string{"0/0", "0|0"} {
			line := "7\t1000\trs" + string(rune('1'+i)) + "\t" + ref + "\t" + alts[i] + "\t.\tPASS\t.\tGT:DP\t" + gt + ":12\n"
			records := parseString(t, format.VCF, line)
			require.Len(t, records, 1)
			assert.Equal(t, ref, records[0].Allele1, gt)
			assert.Equal(t, ref, records[0].Allele2, gt)
		}
	}
}

func TestVCF_NoSampleColumn(t *testing.T) {
	records := parseString(t, format.VCF,
		"#CHROM\tPOS\tID\tREF\tALT\tQUAL\tFILTER\tINFO\n"+
			"1\t100\trs1\tA\tG\t.\t.\t.\n"+
			"1\t200\trs2\tC\t.\t.\t.\t.\n")

	assert.Equal(t, []*genotype.Record{
		rec("rs1", "1", 100, "A", "G"),
		rec("rs2", "1", 200, "C", "C"),
	}, records)
}

func TestVCF_GTNotFirst(t *testing.T) {
	records := parseString(t, format.VCF, "1\t100\trs1\tA\tG\t.\t.\t.\tDP:GT\t30:1/1\n")
	require.Len(t, records, 1)
	assert.Equal(t, "G", records[0].Allele1)
	assert.Equal(t, "G", records[0].Allele2)
}

func TestVCF_OutOfRangeIndex(t *testing.T) {
	records := parseString(t, format.VCF, "1\t100\trs1\tA\tG\t.\t.\t.\tGT\t0/3\n")
	require.Len(t, records, 1)
	assert.Equal(t, "A", records[0].Allele1)
	assert.Equal(t, unk, records[0].Allele2)
}

func TestBIM_File(t *testing.T) {
	kind, records := parseFile(t, "sample.bim")
	assert.Equal(t, format.PlinkBIM, kind)

	assert.Equal(t, []*genotype.Record{
		rec("rs1801133", "1", 11856378, "A", "G"),
		rec("rs4680", "22", 19951271, "A", "G"),
		rec("rs5555", "X", 100, "G", unk),
	}, records)
}

func TestBIM_Row(t *testing.T) {
	p := NewBIMParser(strings.NewReader("1  rs4680  0  19951271  A  G\n"))
	r, err := p.Next()
	require.NoError(t, err)
	require.NotNil(t, r)
	assert.Equal(t, []string{"rs4680", "1", "19951271", "A", "G"}, r.Fields())

	r, err = p.Next()
	require.NoError(t, err)
	assert.Nil(t, r)
}

func TestBIM_SkippedCount(t *testing.T) {
	p := NewBIMParser(strings.NewReader("bad\tline\n1\tkgp1\t0\t1\tA\tC\n1\trs1\t0\t1\tA\tC\n"))
	records, err := genotype.Collect(p)
	require.NoError(t, err)
	assert.Len(t, records, 1)
	assert.Equal(t, 2, p.Skipped())
	assert.Equal(t, 3, p.LineNumber())
}

func TestConsumer_23andMeFile(t *testing.T) {
	kind, records := parseFile(t, "genome_23andme.txt")
	assert.Equal(t, format.TwentyThree, kind)

	assert.Equal(t, []*genotype.Record{
		rec("rs4477212", "1", 82154, "A", "A"),
		rec("rs6265", "11", 27679916, "T", "C"),
		rec("rs4680", "22", 19951271, "A", "G"),
		rec("rs1801133", "1", 11856378, unk, unk),
		rec("rs9999", "Y", 2000, "A", "A"),
		rec("rs4680", "22", 19951271, "A", "G"),
	}, records, "duplicate rows are kept")
}

func TestConsumer_CombinedGenotype(t *testing.T) {
	records := parseString(t, format.ConsumerTab, "rs6265\t11\t27679916\tTC\n")
	require.Len(t, records, 1)
	assert.Equal(t, []string{"rs6265", "11", "27679916", "T", "C"}, records[0].Fields())
}

func TestConsumer_AlleleTwoRepeatsPackedCall(t *testing.T) {
	records := parseString(t, format.ConsumerTab, "rs1\t1\t100\tAG\tAG\n")
	require.Len(t, records, 1)
	assert.Equal(t, "A", records[0].Allele1)
	assert.Equal(t, "G", records[0].Allele2)
}

func TestConsumer_AncestryFile(t *testing.T) {
	kind, records := parseFile(t, "ancestry.txt")
	assert.Equal(t, format.AncestryDNA, kind)

	assert.Equal(t, []*genotype.Record{
		rec("rs4477212", "1", 82154, "T", "T"),
		rec("rs6265", "11", 27679916, "C", "T"),
		rec("rs4680", "22", 19951271, unk, unk),
	}, records)
}

func TestConsumer_MyHeritageFile(t *testing.T) {
	kind, records := parseFile(t, "myheritage.csv")
	assert.Equal(t, format.MyHeritage, kind)

	assert.Equal(t, []*genotype.Record{
		rec("rs4477212", "1", 82154, "A", "A"),
		rec("rs6265", "11", 27679916, "C", "T"),
		rec("rs4680", "22", 19951271, unk, unk),
	}, records)
}

func TestConsumer_SpaceSeparated(t *testing.T) {
	records := parseString(t, format.RsidFirstComma, "rs4680 22 19951271 A G\n")
	require.Len(t, records, 1)
	assert.Equal(t, rec("rs4680", "22", 19951271, "A", "G"), records[0])
}

func TestIllumina_File(t *testing.T) {
	kind, records := parseFile(t, "illumina_report.txt")
	assert.Equal(t, format.IlluminaReport, kind)

	assert.Equal(t, []*genotype.Record{
		rec("rs4680", "22", 19951271, "A", "G"),
		rec("rs6265", "11", 27679916, unk, unk),
	}, records)
}

func TestIllumina_CommaAndMissingColumns(t *testing.T) {
	in := "[Header]\nGSGT Version,2.0\n[Data],,\nSNP Name,Allele1 - Forward,Allele2 - Forward\nrs1,A,C\n"
	records := parseString(t, format.IlluminaReport, in)
	require.Len(t, records, 1)
	assert.Equal(t, rec("rs1", unk, -1, "A", "C"), records[0])
}

func TestIllumina_NoDataSection(t *testing.T) {
	records := parseString(t, format.IlluminaReport, "[Header]\nrs1\t1\t100\tA\tC\n")
	assert.Empty(t, records)
}

func TestHeader_SeparateAlleles(t *testing.T) {
	in := "preamble line\nMarker_ID\tChrom\tBP\tA1\tA2\nrs1\t1\t100\tA\tC\nfoo\t1\t100\tA\tC\n"
	records := parseString(t, format.HeaderTab, in)
	assert.Equal(t, []*genotype.Record{rec("rs1", "1", 100, "A", "C")}, records)
}

func TestHeader_GenotypeOnly(t *testing.T) {
	in := "RSID,CHROMOSOME,POSITION,RESULT\n\"rs1\",\"1\",\"100\",\"A/G\"\n\"rs2\",\"2\",\"200\",\"T\"\n\"rs3\",\"3\",\"300\",\"--\"\n"
	records := parseString(t, format.HeaderComma, in)

	assert.Equal(t, []*genotype.Record{
		rec("rs1", "1", 100, "A", "G"),
		rec("rs2", "2", 200, "T", "T"),
		rec("rs3", "3", 300, unk, unk),
	}, records)
}

func TestHeader_ColumnOrder(t *testing.T) {
	in := "genotype\tposition\tchromosome\trsid\nCT\t27679916\t11\trs6265\n"
	records := parseString(t, format.HeaderTab, in)
	assert.Equal(t, []*genotype.Record{rec("rs6265", "11", 27679916, "C", "T")}, records)
}

func TestHeader_NoHeaderFallsBackToSearch(t *testing.T) {
	in := "x\ty\nrs1\t1\t12345\tA\tG\n"
	records := parseString(t, format.HeaderTab, in)
	assert.Equal(t, []*genotype.Record{rec("rs1", "1", 12345, "A", "G")}, records)
}

func TestHeader_HeaderAfterScanWindow(t *testing.T) {
	in := "a\nb\nc\nd\ne\nrsid\tchr\tpos\tgenotype\nrs1\t1\t12345\tAG\n"
	records := parseString(t, format.HeaderTab, in)
	// The late header line is ignored; the data row is still found by search.
	assert.Equal(t, []*genotype.Record{rec("rs1", "1", 12345, "A", "G")}, records)
}

func TestSearch_Heuristics(t *testing.T) {
	tests := []struct {
		name string
		line string
		want *genotype.Record
	}{
		{"embedded", "22 19951271 rs4680 A G", rec("rs4680", "22", 19951271, "A", "G")},
		{"packed call", "chr11;27679916;rs6265;tc", rec("rs6265", "11", 27679916, "T", "C")},
		{"single allele", "rs1 X 123456 G", rec("rs1", "X", 123456, "G", unk)},
		{"only id", "marker rs42 seen", rec("rs42", unk, -1, unk, unk)},
		{"short number is chromosome", "rs7 3 99 A C", rec("rs7", "3", -1, "A", "C")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			records := parseString(t, format.Unknown, tt.line+"\n")
			require.Len(t, records, 1)
			assert.Equal(t, tt.want, records[0])
		})
	}
}

func TestSearch_OneRecordPerLine(t *testing.T) {
	records := parseString(t, format.GenericTab, "rs1 rs2 1 12345 A G\n# rs3 in a comment\nno marker here\n")
	require.Len(t, records, 1)
	assert.Equal(t, "rs1", records[0].ID)
}

func TestFallback_UnionAndDedup(t *testing.T) {
	content := "rs1\t1\t100\tAG\n" +
		"\"rs2\",\"2\",\"200\",\"CT\"\n" +
		"chr3 300000 rs3 A C\n" +
		"rs1\t1\t100\tAG\n"
	src := input.NewBytesSource("mixed.txt", []byte(content))

	p, err := Open(format.Unknown, src)
	require.NoError(t, err)
	defer p.Close()

	records, err := genotype.Collect(p)
	require.NoError(t, err)

	assert.Equal(t, []*genotype.Record{
		rec("rs1", "1", 100, "A", "G"),
		rec("rs2", "2", 200, "C", "T"),
		rec("rs3", "3", 300000, "A", "C"),
	}, records)

	fb, ok := p.(*FallbackParser)
	require.True(t, ok)
	assert.Equal(t, []Contribution{
		{Adapter: "consumer_tab", Records: 1},
		{Adapter: "consumer_comma", Records: 1},
		{Adapter: "search", Records: 1},
	}, fb.Contributions())
}

func TestFallback_FollowsInputOrder(t *testing.T) {
	content := "chr22 19951271 rs4680 A G\n" +
		"rs6265\t11\t27679916\tTC\n" +
		"\"rs1801133\",\"1\",\"11856378\",\"GA\"\n" +
		"note rs4680 seen again\n"
	src := input.NewBytesSource("mixed.txt", []byte(content))

	p, err := Open(format.GenericTab, src)
	require.NoError(t, err)
	defer p.Close()

	records, err := genotype.Collect(p)
	require.NoError(t, err)

	assert.Equal(t, []*genotype.Record{
		rec("rs4680", "22", 19951271, "A", "G"),
		rec("rs6265", "11", 27679916, "T", "C"),
		rec("rs1801133", "1", 11856378, "G", "A"),
	}, records)

	fb := p.(*FallbackParser)
	assert.Equal(t, 4, fb.LineNumber())
	assert.Equal(t, 1, fb.Skipped())
}

func TestOpen_ConfidentKindUsesSingleAdapter(t *testing.T) {
	src := input.NewBytesSource("g.txt", []byte("rs1\t1\t100\tAG\n"))
	p, err := Open(format.TwentyThree, src)
	require.NoError(t, err)
	defer p.Close()

	_, ok := p.(*Parser)
	assert.True(t, ok)
}

func TestNew_UnknownKind(t *testing.T) {
	_, err := New(format.Kind("bam"), strings.NewReader(""))
	assert.Error(t, err)
}

// Every adapter must discard rows whose id is not a marker id, whatever the
// input looks like.
func TestAllAdapters_MarkerIDInvariant(t *testing.T) {
	junk := strings.Join([]string{
		"##fileformat=VCFv4.2",
		"[Data]",
		"rsid\tchr\tpos\tgenotype",
		"i7001234\t1\t100\tAA",
		"1\tkgp55\t0\t100\tA\tC",
		"1\t100\tRS12\tA\tC\t.\t.\t.\tGT\t0/1",
		"\"VG01\",\"1\",\"100\",\"AA\"",
		"rs12x 1 100 A G",
		"rs\t1\t100\tAA",
		"",
		"rs77\t5\t55555\tAC",
		"1\trs78\t0\t100\tA\tC",
		"5\t100\trs79\tA\tC\t.\t.\t.\tGT\t1/1",
	}, "\n")

	for _, kind := range format.Kinds() {
		t.Run(string(kind), func(t *testing.T) {
			p, err := Open(kind, input.NewBytesSource("junk", []byte(junk)))
			require.NoError(t, err)
			defer p.Close()

			records, err := genotype.Collect(p)
			require.NoError(t, err)
			for _, r := range records {
				assert.True(t, genotype.IsMarkerID(r.ID), "emitted invalid id %q", r.ID)
			}
		})
	}
}

// Canonical output fed back through the header adapter, using the system's
// own column names, reproduces the same record set.
func TestRoundTrip_HeaderAdapter(t *testing.T) {
	_, genome := parseFile(t, "genome_23andme.txt")
	indels := parseString(t, format.VCF, "##fileformat=VCFv4.2\n"+
		"1\t100\trs1\tA\tAT\t.\t.\t.\tGT\t1/1\n"+
		"2\t200\trs2\tA\tAT\t.\t.\t.\tGT\t0/1\n"+
		"3\t300\trs3\tCTG\tC\t.\t.\t.\tGT\t1|1\n")
	require.Equal(t, rec("rs1", "1", 100, "AT", "AT"), indels[0])

	tests := []struct {
		name     string
		original []*genotype.Record
	}{
		{"consumer snps", genome},
		{"vcf indels", indels},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.NotEmpty(t, tt.original)

			var b strings.Builder
			b.WriteString("# rsid\tchromosome\tposition\tallele1\tallele2\n")
			for _, r := range tt.original {
				b.WriteString(strings.Join(r.Fields(), "\t"))
				b.WriteString("\n")
			}

			roundTrip := parseString(t, format.HeaderTab, b.String())
			assert.ElementsMatch(t, keys(tt.original), keys(roundTrip))
		})
	}
}

func TestHeader_LoneAlleleColumnIsSplit(t *testing.T) {
	in := "rsid\tchr\tpos\tallele1\nrs1\t1\t100\tAG\nrs2\t1\t200\tA\n"
	records := parseString(t, format.HeaderTab, in)
	assert.Equal(t, []*genotype.Record{
		rec("rs1", "1", 100, "A", "G"),
		rec("rs2", "1", 200, "A", "A"),
	}, records)
}

func keys(records []*genotype.Record) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = strings.Join(r.Fields(), "|")
	}
	sort.Strings(out)
	return out
}

// findTestFile locates a test file in the testdata directory.
func findTestFile(t *testing.T, name string) string {
	t.Helper()

	paths := []string{
		filepath.Join("testdata", name),
		filepath.Join("..", "..", "testdata", name),
	}

	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}

	t.Fatalf("Test file not found: %s", name)
	return ""
}
