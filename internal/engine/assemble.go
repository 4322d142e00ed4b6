package engine

import (
	"fmt"
	"io"
	"os"
)

// assembleFile joins the part files in chunk order into savedPath and
// removes the parts and the resume state afterwards.
func assembleFile(savedPath string, chunks int, size int64) error {
	if chunks == 1 {
		if err := os.Rename(partFileName(savedPath, 0), savedPath); err != nil {
			return fmt.Errorf("error finalizing file: %w", err)
		}
	} else if err := concatParts(savedPath, chunks, size); err != nil {
		return err
	}
	for i := range chunks {
		os.Remove(partFileName(savedPath, i))
	}
	os.Remove(metaFileName(savedPath))
	return nil
}

func concatParts(savedPath string, chunks int, size int64) error {
	destFile, err := os.Create(savedPath)
	if err != nil {
		return fmt.Errorf("error creating output file: %w", err)
	}
	defer destFile.Close()

	var totalWritten int64
	for i := range chunks {
		partFile, err := os.Open(partFileName(savedPath, i))
		if err != nil {
			return fmt.Errorf("error opening chunk: %w", err)
		}
		written, err := io.Copy(destFile, partFile)
		partFile.Close()
		if err != nil {
			return fmt.Errorf("error copying chunk: %w", err)
		}
		totalWritten += written
	}
	if size > 0 && totalWritten != size {
		os.Remove(savedPath)
		return fmt.Errorf("size mismatch: expected %d, got %d", size, totalWritten)
	}
	return destFile.Sync()
}
