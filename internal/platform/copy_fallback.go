//go:build !linux

package platform

// CopyFile uses positioned read/write outside Linux.
func CopyFile(params CopyFileParams) (CopyResult, error) {
	if params.SrcSize <= 0 {
		return CopyResult{Method: ReadWrite}, nil
	}
	return copyReadWrite(params)
}
