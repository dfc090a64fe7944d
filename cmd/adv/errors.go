package main

import "errors"

var errNotLoggedIn = errors.New("not logged in (run 'adv login')")
