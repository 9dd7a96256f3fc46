package cache_test

import (
	"errors"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/icachesim/cache"
)

var _ = Describe("Config", func() {
	Describe("Validate", func() {
		It("should accept the default configuration", func() {
			Expect(cache.DefaultConfig().Validate()).To(Succeed())
		})

		DescribeTable("should reject malformed geometry",
			func(config cache.Config) {
				err := config.Validate()
				Expect(err).To(HaveOccurred())
				Expect(errors.Is(err, cache.ErrInvalidConfig)).To(BeTrue())
			},
			Entry("zero size", cache.Config{Size: 0, Associativity: 2, BlockSize: 8, AddressWidth: 32}),
			Entry("zero ways", cache.Config{Size: 4096, Associativity: 0, BlockSize: 8, AddressWidth: 32}),
			Entry("3 ways", cache.Config{Size: 4096, Associativity: 3, BlockSize: 8, AddressWidth: 32}),
			Entry("12B lines", cache.Config{Size: 4096, Associativity: 2, BlockSize: 12, AddressWidth: 32}),
			Entry("6KB total", cache.Config{Size: 6144, Associativity: 2, BlockSize: 8, AddressWidth: 32}),
			Entry("size below one set", cache.Config{Size: 8, Associativity: 2, BlockSize: 8, AddressWidth: 32}),
			Entry("address too narrow", cache.Config{Size: 4096, Associativity: 2, BlockSize: 8, AddressWidth: 10}),
			Entry("address too wide", cache.Config{Size: 4096, Associativity: 2, BlockSize: 8, AddressWidth: 65}),
		)
	})

	Describe("LoadConfig", func() {
		var tempDir string

		BeforeEach(func() {
			var err error
			tempDir, err = os.MkdirTemp("", "cache-config-test")
			Expect(err).NotTo(HaveOccurred())
		})

		AfterEach(func() {
			_ = os.RemoveAll(tempDir)
		})

		It("should fill missing JSON fields from defaults", func() {
			path := filepath.Join(tempDir, "cache.json")
			Expect(os.WriteFile(path, []byte(`{"size": 8192, "block_size": 16}`), 0644)).To(Succeed())

			config, err := cache.LoadConfig(path)
			Expect(err).NotTo(HaveOccurred())
			Expect(config).To(Equal(cache.Config{
				Size: 8192, Associativity: 2, BlockSize: 16, AddressWidth: 32,
			}))
		})

		It("should load YAML", func() {
			path := filepath.Join(tempDir, "cache.yaml")
			Expect(os.WriteFile(path, []byte("associativity: 4\naddress_width: 64\n"), 0644)).To(Succeed())

			config, err := cache.LoadConfig(path)
			Expect(err).NotTo(HaveOccurred())
			Expect(config.Associativity).To(Equal(4))
			Expect(config.AddressWidth).To(Equal(64))
			Expect(config.Size).To(Equal(4096))
		})

		It("should reject unknown YAML keys", func() {
			path := filepath.Join(tempDir, "cache.yml")
			Expect(os.WriteFile(path, []byte("ways: 4\n"), 0644)).To(Succeed())

			_, err := cache.LoadConfig(path)
			Expect(err).To(HaveOccurred())
		})

		It("should fail on a missing file", func() {
			_, err := cache.LoadConfig(filepath.Join(tempDir, "none.json"))
			Expect(err).To(HaveOccurred())
		})

		It("should read back a saved configuration", func() {
			want := cache.Config{Size: 16384, Associativity: 8, BlockSize: 32, AddressWidth: 48}
			for _, name := range []string{"saved.json", "saved.yaml"} {
				path := filepath.Join(tempDir, name)
				Expect(want.SaveConfig(path)).To(Succeed())

				got, err := cache.LoadConfig(path)
				Expect(err).NotTo(HaveOccurred())
				Expect(got).To(Equal(want))
			}
		})
	})
})
