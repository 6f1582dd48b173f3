package acserver

import "github.com/sirupsen/logrus"

type Logger = logrus.FieldLogger
