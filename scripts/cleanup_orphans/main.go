package main

import (
	"flag"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"strings"

	"geostick/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// Failed or cancelled submissions can leave an uploaded object behind with
// no sticker row referencing it. This script walks the local storage tree,
// collects every object path referenced by a sticker image_url, and removes
// the rest.
func main() {
	storageDir := flag.String("storage-dir", "storage", "root of the local storage tree")
	bucket := flag.String("bucket", "stickers", "bucket subdirectory to scan")
	dry := flag.Bool("dry-run", true, "Preview actions without deleting anything")
	yes := flag.Bool("yes", false, "Confirm destructive action when dry-run=false")
	flag.Parse()

	dsn := os.Getenv("DB_DSN")
	if dsn == "" {
		log.Fatal("DB_DSN must be set")
	}
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatalf("failed to connect db: %v", err)
	}

	var urls []string
	if err := db.Model(&models.Sticker{}).Pluck("image_url", &urls).Error; err != nil {
		log.Fatalf("failed to list sticker image urls: %v", err)
	}
	// index referenced objects by their trailing stickers/{owner}/{ts}.{ext} path
	referenced := make(map[string]struct{}, len(urls))
	for _, u := range urls {
		if i := strings.Index(u, "stickers/"); i >= 0 {
			referenced[u[i:]] = struct{}{}
		}
	}

	root := filepath.Join(*storageDir, *bucket)
	var orphans []string
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		key := filepath.ToSlash(rel)
		if !strings.HasPrefix(key, "stickers/") {
			key = "stickers/" + key
		}
		if _, ok := referenced[key]; !ok {
			orphans = append(orphans, path)
		}
		return nil
	})
	if err != nil {
		log.Fatalf("walk %s failed: %v", root, err)
	}

	fmt.Printf("%d objects referenced, %d orphans found under %s\n", len(referenced), len(orphans), root)
	for _, p := range orphans {
		fmt.Println(" -", p)
	}
	if len(orphans) == 0 {
		return
	}
	if *dry {
		fmt.Println("dry-run: no changes made. Use --dry-run=false --yes to execute.")
		return
	}
	if !*yes {
		fmt.Println("Destructive! Pass --yes to proceed.")
		return
	}
	removed := 0
	for _, p := range orphans {
		if err := os.Remove(p); err != nil {
			log.Printf("failed to remove %s: %v", p, err)
			continue
		}
		removed++
	}
	fmt.Printf("cleanup done, removed %d orphaned objects\n", removed)
}
