package main

// seeds a demo community with a handful of sticker records for local
// development. For each image in --dir:
// - upload it into the local storage tree under stickers/<auth_id>/
// - create a Sticker row pointing at the stored object, with jittered
//   coordinates around --lat/--long

import (
	"context"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"time"

	"geostick/models"
	"geostick/pkg/storage"

	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func mustDBFromEnv() *gorm.DB {
	dsn := os.Getenv("DB_DSN")
	if dsn == "" {
		log.Fatal("DB_DSN not set in env")
	}
	gdb, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatalf("open db: %v", err)
	}
	return gdb
}

func main() {
	username := flag.String("username", "admin", "username owning the seeded stickers")
	community := flag.String("community", "Demo Walk", "community name to create or reuse")
	dir := flag.String("dir", "testdata/stickers", "directory of images to seed")
	storageDir := flag.String("storage-dir", "storage", "root of the local storage tree")
	baseURL := flag.String("base-url", "http://localhost:8080/storage", "public prefix stored objects are served under")
	lat := flag.Float64("lat", 48.8566, "center latitude for jittered coordinates")
	long := flag.Float64("long", 2.3522, "center longitude for jittered coordinates")
	dry := flag.Bool("dry-run", true, "don't write to db or storage")
	flag.Parse()

	gdb := mustDBFromEnv()

	var user models.User
	if err := gdb.Where("username = ?", *username).First(&user).Error; err != nil {
		log.Fatalf("user not found: %v", err)
	}

	var com models.Community
	if err := gdb.Where("name = ?", *community).First(&com).Error; err != nil {
		com = models.Community{ID: uuid.NewString(), Name: *community, AdminID: user.AuthID}
		if *dry {
			fmt.Printf("dry-run: would create community %q\n", com.Name)
		} else if err := gdb.Create(&com).Error; err != nil {
			log.Fatalf("create community: %v", err)
		}
	}

	store := storage.NewLocal(*storageDir, *baseURL)

	entries, err := os.ReadDir(*dir)
	if err != nil {
		log.Fatalf("read dir: %v", err)
	}

	seeded := 0
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		lower := strings.ToLower(name)
		if !strings.HasSuffix(lower, ".png") && !strings.HasSuffix(lower, ".jpg") && !strings.HasSuffix(lower, ".jpeg") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(*dir, name))
		if err != nil {
			log.Printf("skip %s: %v", name, err)
			continue
		}
		objPath := fmt.Sprintf("stickers/%s/%d%s", user.AuthID, time.Now().UnixMilli(), filepath.Ext(lower))
		title := strings.TrimSuffix(name, filepath.Ext(name))
		if *dry {
			fmt.Printf("dry-run: would seed %q at %s\n", title, objPath)
			seeded++
			continue
		}
		if err := store.Upload(context.Background(), "stickers", objPath, data, "image/jpeg", true); err != nil {
			log.Printf("upload %s failed: %v", name, err)
			continue
		}
		sticker := models.Sticker{
			ID:          uuid.NewString(),
			CommunityID: com.ID,
			Title:       title,
			ImageURL:    store.PublicURL("stickers", objPath),
			Lat:         *lat + (rand.Float64()-0.5)/100,
			Long:        *long + (rand.Float64()-0.5)/100,
			AuthID:      user.AuthID,
		}
		if err := gdb.Create(&sticker).Error; err != nil {
			log.Printf("create sticker for %s failed: %v", name, err)
			continue
		}
		seeded++
		// keep storage paths distinct when seeding several files in one millisecond
		time.Sleep(2 * time.Millisecond)
	}
	fmt.Printf("seeded %d stickers into community %s\n", seeded, com.Name)
}
