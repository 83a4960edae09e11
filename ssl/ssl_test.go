package ssl

import (
	"crypto/x509"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppendPEMFileToRootCAPool(t *testing.T) {
	certPool := GetRootCAPool()
	subjects := certPool.Subjects()
	hardCodedSubNum := len(subjects)

	AppendPEMFileToRootCAPool(certPool, "mockcertificates/mock-certs.pem")
	subjects = certPool.Subjects()
	subNumIncludingFile := len(subjects)
	assert.True(t, subNumIncludingFile > hardCodedSubNum, "subNumIncludingFile should be greater than hardCodedSubNum")
}

func TestAppendPEMFileToEmptyPool(t *testing.T) {
	var certPool *x509.CertPool

	certificatesFile := "mockcertificates/mock-certs.pem"
	certPool, err := AppendPEMFileToRootCAPool(certPool, certificatesFile)
	assert.NoError(t, err)

	subjects := certPool.Subjects()
	assert.Equal(t, 1, len(subjects), "we only loaded one certificate from the file")
}

func TestAppendPEMFileToRootCAPoolFail(t *testing.T) {
	var certPool *x509.CertPool

	fakeCertificatesFile := "mockcertificates/NO-FILE.pem"
	_, err := AppendPEMFileToRootCAPool(certPool, fakeCertificatesFile)
	assert.Error(t, err, "AppendPEMFileToRootCAPool should error on a missing file")
}
