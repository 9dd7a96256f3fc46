package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/icachesim/cache"
	"github.com/sarchlab/icachesim/emu"
	"github.com/sarchlab/icachesim/report"
	"github.com/sarchlab/icachesim/store"
)

var sampleListing = filepath.Join("..", "..", "loader", "testdata", "sample.lst")

func execute(args ...string) (string, string, error) {
	cmd := newRootCmd()

	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)

	err := cmd.Execute()
	return out.String(), errOut.String(), err
}

var _ = Describe("icachesim", func() {
	var dir string

	BeforeEach(func() {
		var err error
		dir, err = os.MkdirTemp("", "icachesim-test")
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		_ = os.RemoveAll(dir)
	})

	writeFile := func(name, content string) string {
		path := filepath.Join(dir, name)
		ExpectWithOffset(1, os.WriteFile(path, []byte(content), 0644)).To(Succeed())
		return path
	}

	Describe("run", func() {
		It("should print the table report", func() {
			out, _, err := execute("run", sampleListing)

			Expect(err).NotTo(HaveOccurred())
			Expect(out).To(ContainSubstring("Cache: 4096B/2-way/8B line/32-bit"))
			Expect(out).To(ContainSubstring("Hit rate: 95.00%"))
			Expect(out).To(ContainSubstring("Instructions run: 100"))
		})

		It("should honor the instruction limit", func() {
			out, _, err := execute("run", "--max-instrs", "2", sampleListing)

			Expect(err).NotTo(HaveOccurred())
			Expect(out).To(ContainSubstring("Hit rate: 50.00%"))
			Expect(out).To(ContainSubstring("Instructions run: 2"))
		})

		It("should print csv", func() {
			out, _, err := execute("run", "--format", "csv", sampleListing)

			Expect(err).NotTo(HaveOccurred())
			lines := strings.Split(strings.TrimSpace(out), "\n")
			Expect(lines).To(HaveLen(10))
			Expect(lines[0]).To(Equal("address,instruction,hits,misses"))
			Expect(lines).To(ContainElement("80000014,j,38,0"))
		})

		It("should print json", func() {
			out, _, err := execute("run", "--format", "json", sampleListing)
			Expect(err).NotTo(HaveOccurred())

			var r report.Report
			Expect(json.Unmarshal([]byte(out), &r)).To(Succeed())
			Expect(r.Config).To(Equal(cache.DefaultConfig()))
			Expect(r.Summary.Hits).To(Equal(uint64(95)))
			Expect(r.Summary.Misses).To(Equal(uint64(5)))
		})

		It("should reject an invalid geometry", func() {
			_, _, err := execute("run", "--ways", "3", sampleListing)
			Expect(err).To(MatchError(cache.ErrInvalidConfig))
		})

		It("should load the geometry from a config file", func() {
			cfgPath := writeFile("cache.yaml",
				"size: 64\nassociativity: 1\nblock_size: 8\naddress_width: 32\n")

			out, _, err := execute("run", "--config", cfgPath, sampleListing)
			Expect(err).NotTo(HaveOccurred())
			Expect(out).To(ContainSubstring("Cache: 64B/1-way/8B line/32-bit"))

			out, _, err = execute("run", "--config", cfgPath, "--ways", "2", sampleListing)
			Expect(err).NotTo(HaveOccurred())
			Expect(out).To(ContainSubstring("Cache: 64B/2-way/8B line/32-bit"))
		})

		It("should fail when the start address is not listed", func() {
			path := writeFile("nostart.lst", "#disas 1000\n0: 00000013 nop\n")

			_, _, err := execute("run", path)
			Expect(err).To(MatchError(emu.ErrStartNotFound))
		})

		It("should report a halt on a missing address", func() {
			path := writeFile("short.lst", "#disas 0\n0: 00000013 nop\n")

			out, errOut, err := execute("run", "--log", "warn", path)
			Expect(err).NotTo(HaveOccurred())
			Expect(out).To(ContainSubstring("Stopped: no instruction at 0x4"))
			Expect(errOut).To(ContainSubstring("Could not find instruction"))
		})

		It("should reject a bad log level", func() {
			_, _, err := execute("run", "--log", "loud", sampleListing)
			Expect(err).To(HaveOccurred())
		})

		It("should reject an unknown format", func() {
			_, _, err := execute("run", "--format", "xml", sampleListing)
			Expect(err).To(HaveOccurred())
		})

		It("should store the run in a database", func() {
			db := filepath.Join(dir, "runs.sqlite3")

			_, _, err := execute("run", "--db", db, sampleListing)
			Expect(err).NotTo(HaveOccurred())

			runs := listRuns(db)
			Expect(runs).To(HaveLen(1))
			Expect(runs[0].Program).To(Equal("sample.lst"))
			Expect(runs[0].Hits).To(Equal(uint64(95)))
		})

		It("should take the database from the environment", func() {
			db := filepath.Join(dir, "env.sqlite3")
			Expect(os.Setenv(envDB, db)).To(Succeed())
			DeferCleanup(os.Unsetenv, envDB)

			_, _, err := execute("run", sampleListing)
			Expect(err).NotTo(HaveOccurred())
			Expect(listRuns(db)).To(HaveLen(1))
		})
	})

	Describe("sweep", func() {
		It("should sweep the built-in benchmarks", func() {
			out, _, err := execute("sweep", "--builtin",
				"--sizes", "4096", "--ways-list", "2", "--lines", "8",
				"--format", "csv")

			Expect(err).NotTo(HaveOccurred())
			lines := strings.Split(strings.TrimSpace(out), "\n")
			Expect(lines).To(HaveLen(7))
			Expect(lines[0]).To(HavePrefix("name,size,ways,line"))
		})

		It("should sweep listing files over every geometry", func() {
			out, _, err := execute("sweep", sampleListing,
				"--sizes", "1024,4096", "--ways-list", "1,2", "--lines", "8",
				"--max-instrs", "100", "--format", "csv")

			Expect(err).NotTo(HaveOccurred())
			lines := strings.Split(strings.TrimSpace(out), "\n")
			Expect(lines).To(HaveLen(5))
			Expect(lines).To(ContainElement(
				"sample,4096,2,8,100,95,5,0,95.00,halted: instruction limit"))
		})

		It("should store every run", func() {
			db := filepath.Join(dir, "sweep.sqlite3")

			_, _, err := execute("sweep", sampleListing,
				"--sizes", "1024,4096", "--ways-list", "1", "--lines", "8",
				"--db", db)
			Expect(err).NotTo(HaveOccurred())
			Expect(listRuns(db)).To(HaveLen(2))
		})

		It("should fail when a listing has no start instruction", func() {
			path := writeFile("nostart.lst", "#disas 1000\n0: 00000013 nop\n")

			out, _, err := execute("sweep", path,
				"--sizes", "4096", "--ways-list", "2", "--lines", "8")
			Expect(err).To(HaveOccurred())
			Expect(out).To(ContainSubstring("could not find start instruction"))
		})

		It("should require listings or --builtin", func() {
			_, _, err := execute("sweep")
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("disas", func() {
		It("should print decoded instructions", func() {
			out, _, err := execute("disas", sampleListing)

			Expect(err).NotTo(HaveOccurred())
			Expect(out).To(ContainSubstring("Entry point: 0x80000000"))
			Expect(out).To(ContainSubstring("Instructions: 9"))
			Expect(out).To(ContainSubstring("80000010: fe041ce3 bnez s0,80000008"))
		})

		It("should fail on an unsupported listing", func() {
			path := writeFile("hex.lst", "#hex 0\n")

			_, _, err := execute("disas", path)
			Expect(err).To(HaveOccurred())
		})
	})
})

func listRuns(db string) []store.Run {
	r := store.NewSQLiteReader(db)
	ExpectWithOffset(1, r.Init()).To(Succeed())
	defer func() { _ = r.Close() }()

	runs, err := r.ListRuns()
	ExpectWithOffset(1, err).NotTo(HaveOccurred())
	return runs
}
